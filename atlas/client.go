package atlas

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Sender performs one authenticated logical call. *Executor implements it.
type Sender interface {
	Send(ctx context.Context, suffix string, payload url.Values) (*Response, error)
}

// Ensure Executor implements Sender at compile time.
var _ Sender = (*Executor)(nil)

// Client exposes the server endpoints as typed calls over a Sender.
type Client struct {
	sender Sender
	lists  Lists
	log    logrus.FieldLogger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithLists replaces the default list registry.
func WithLists(l Lists) ClientOption {
	return func(c *Client) { c.lists = l }
}

// WithClientLogger sets the logger used for call-level warnings.
func WithClientLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient builds a Client. The list registry defaults to DefaultLists and
// the logger to the Executor's own when s is one.
func NewClient(s Sender, opts ...ClientOption) (*Client, error) {
	if s == nil {
		return nil, requestErr("sender is nil")
	}
	c := &Client{sender: s, lists: DefaultLists(), log: logrus.StandardLogger()}
	if e, ok := s.(*Executor); ok {
		c.log = e.log
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Lists returns the registry used to resolve list names.
func (c *Client) Lists() Lists { return c.lists }

// Call sends payload to ep. An empty payload is rejected before any request
// when the endpoint requires one.
func (c *Client) Call(ctx context.Context, ep Endpoint, payload url.Values) (*Response, error) {
	if ep.RequirePayload && len(payload) == 0 {
		return nil, requestErr("%s: a payload is required to get a response", ep.Name)
	}
	return c.sender.Send(ctx, ep.Suffix, payload)
}

// VRAScoresQuery filters the VRA scores table. DateThreshold returns rows
// after the given day.
type VRAScoresQuery struct {
	DateThreshold string   `validate:"omitempty,datetime=2006-01-02"`
	ObjectIDs     []string `validate:"omitempty,dive,atlasid"`
}

func (q VRAScoresQuery) payload() url.Values {
	v := url.Values{}
	if q.DateThreshold != "" {
		v.Set("datethreshold", q.DateThreshold)
	}
	if len(q.ObjectIDs) > 0 {
		v.Set("objectid", strings.Join(q.ObjectIDs, ","))
	}
	return v
}

// VRAScores reads the VRA scores table.
func (c *Client) VRAScores(ctx context.Context, q VRAScoresQuery) (*Response, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	return c.Call(ctx, EndpointVRAScores, q.payload())
}

// VRAToDoQuery filters the VRA to-do list.
type VRAToDoQuery struct {
	DateThreshold string `validate:"required,datetime=2006-01-02"`
}

// VRAToDo reads the VRA to-do list.
func (c *Client) VRAToDo(ctx context.Context, q VRAToDoQuery) (*Response, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	return c.Call(ctx, EndpointVRAToDoList, url.Values{"datethreshold": {q.DateThreshold}})
}

// CustomListsQuery selects rows of the custom lists table by object, by
// list, or both.
type CustomListsQuery struct {
	ObjectIDs     []string `validate:"omitempty,dive,atlasid"`
	ObjectGroupID *int     `validate:"omitempty,gte=0"`
}

// CustomListsTable reads the object groups table.
func (c *Client) CustomListsTable(ctx context.Context, q CustomListsQuery) (*Response, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	v := url.Values{}
	if len(q.ObjectIDs) > 0 {
		v.Set("objectid", strings.Join(q.ObjectIDs, ","))
	}
	if q.ObjectGroupID != nil {
		v.Set("objectgroupid", strconv.Itoa(*q.ObjectGroupID))
	}
	return c.Call(ctx, EndpointCustomLists, v)
}

// SourceData fetches the full record of one object. A nil mjd returns every
// detection.
func (c *Client) SourceData(ctx context.Context, id string, mjd *float64) (*Response, error) {
	if err := ValidateATLASID(id); err != nil {
		return nil, err
	}
	return c.Call(ctx, EndpointObjects, sourcePayload(id, mjd))
}

// MultipleSourceData fetches many objects, BatchSize at a time, and joins the
// returned arrays.
func (c *Client) MultipleSourceData(ctx context.Context, ids []string, mjd *float64) (*BatchResult, error) {
	return c.sendBatched(ctx, EndpointObjects, ids, func(csv string) url.Values {
		return sourcePayload(csv, mjd)
	})
}

func sourcePayload(objects string, mjd *float64) url.Values {
	v := url.Values{"objects": {objects}}
	if mjd != nil {
		v.Set("mjd", formatFloat(*mjd))
	}
	return v
}

// Cone search request types.
const (
	ConeNearest = "nearest"
	ConeAll     = "all"
	ConeCount   = "count"
)

// ConeRadiusWarnArcsec is the radius above which a cone search is logged as
// unusually large.
const ConeRadiusWarnArcsec = 300.0

// ConeQuery is a positional search. RA and Dec are in degrees, Radius in
// arcseconds.
type ConeQuery struct {
	RA          float64 `validate:"gte=0,lt=360"`
	Dec         float64 `validate:"gte=-90,lte=90"`
	Radius      float64 `validate:"gt=0"`
	RequestType string  `validate:"required,oneof=nearest all count"`
}

// ConeSearch runs a positional search around RA/Dec.
func (c *Client) ConeSearch(ctx context.Context, q ConeQuery) (*Response, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	if q.Radius > ConeRadiusWarnArcsec {
		c.log.WithField("radius", q.Radius).Warnf("cone search radius exceeds %g arcsec; the search may be slow", ConeRadiusWarnArcsec)
	}
	return c.Call(ctx, EndpointConeSearch, url.Values{
		"ra":          {formatFloat(q.RA)},
		"dec":         {formatFloat(q.Dec)},
		"radius":      {formatFloat(q.Radius)},
		"requestType": {q.RequestType},
	})
}

// ObjectList downloads every object on the named list.
func (c *Client) ObjectList(ctx context.Context, listName string) (*Response, error) {
	entry, err := c.lists.Lookup(listName)
	if err != nil {
		return nil, err
	}
	return c.Call(ctx, EndpointObjectList, url.Values{
		"objectlistid":  {entry.idString()},
		"getcustomlist": {entry.CustomFlag()},
	})
}

// ListIDs returns the ATLAS IDs on the named list, as they appear in the
// response.
func (c *Client) ListIDs(ctx context.Context, listName string) ([]string, error) {
	resp, err := c.ObjectList(ctx, listName)
	if err != nil {
		return nil, err
	}
	rows, ok := resp.Data.([]any)
	if !ok {
		return nil, &RequestError{StatusCode: resp.StatusCode, Msg: "object list response is not an array", Body: resp.Raw}
	}
	results := gjson.GetBytes(resp.Raw, "#.id").Array()
	if len(results) != len(rows) {
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Msg:        fmt.Sprintf("object list has %d rows but only %d ids", len(rows), len(results)),
			Body:       resp.Raw,
		}
	}
	ids := make([]string, 0, len(results))
	for _, r := range results {
		// Raw keeps the digits exactly as sent
		ids = append(ids, strings.Trim(r.Raw, `"`))
	}
	return ids, nil
}

// VRAScore is one row written to the VRA scores table. Probabilities are in
// [0, 1].
type VRAScore struct {
	ObjectID string  `validate:"atlasid"`
	PReal    float64 `validate:"gte=0,lte=1"`
	PGal     float64 `validate:"gte=0,lte=1"`
	PFast    float64 `validate:"gte=0,lte=1"`
	Debug    bool
}

// WriteVRAScore writes one score row.
func (c *Client) WriteVRAScore(ctx context.Context, s VRAScore) (*Response, error) {
	if err := validateQuery(s); err != nil {
		return nil, err
	}
	return c.Call(ctx, EndpointWriteVRAScore, url.Values{
		"objectid": {s.ObjectID},
		"preal":    {formatFloat(s.PReal)},
		"pgal":     {formatFloat(s.PGal)},
		"pfast":    {formatFloat(s.PFast)},
		"debug":    {formBool(s.Debug)},
	})
}

// WriteVRARank sets the rank of one object.
func (c *Client) WriteVRARank(ctx context.Context, id string, rank float64) (*Response, error) {
	if err := ValidateATLASID(id); err != nil {
		return nil, err
	}
	return c.Call(ctx, EndpointWriteVRARank, url.Values{
		"objectid": {id},
		"rank":     {formatFloat(rank)},
	})
}

// WriteToDo adds one object to the VRA to-do list.
func (c *Client) WriteToDo(ctx context.Context, id string) (*Response, error) {
	if err := ValidateATLASID(id); err != nil {
		return nil, err
	}
	return c.Call(ctx, EndpointWriteToDo, url.Values{"objectid": {id}})
}

// AddToCustomList adds ids to the named list, BatchSize at a time.
func (c *Client) AddToCustomList(ctx context.Context, listName string, ids []string) (*BatchResult, error) {
	return c.customListBatch(ctx, EndpointAddToList, listName, ids)
}

// RemoveFromCustomList removes ids from the named list, BatchSize at a time.
func (c *Client) RemoveFromCustomList(ctx context.Context, listName string, ids []string) (*BatchResult, error) {
	return c.customListBatch(ctx, EndpointRemoveFromList, listName, ids)
}

func (c *Client) customListBatch(ctx context.Context, ep Endpoint, listName string, ids []string) (*BatchResult, error) {
	entry, err := c.lists.Lookup(listName)
	if err != nil {
		return nil, err
	}
	group := entry.idString()
	return c.sendBatched(ctx, ep, ids, func(csv string) url.Values {
		return url.Values{"objectid": {csv}, "objectgroupid": {group}}
	})
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func formBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
