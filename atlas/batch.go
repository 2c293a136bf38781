package atlas

import (
	"context"
	"net/url"
	"strings"
)

// BatchSize is the largest number of object IDs sent in one request.
const BatchSize = 100

func chunkIDs(ids []string, size int) [][]string {
	if size <= 0 {
		size = BatchSize
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}

// BatchResult holds the combined output of a batched call.
type BatchResult struct {
	// Items concatenates array responses; object responses are appended whole.
	Items []any
	// Responses holds one entry per request, in send order.
	Responses []*Response
}

// sendBatched posts ids in chunks of BatchSize, building each payload from the
// comma-joined chunk. It stops at the first failure and returns what it has.
func (c *Client) sendBatched(ctx context.Context, ep Endpoint, ids []string, build func(csv string) url.Values) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, requestErr("%s: no object ids given", ep.Name)
	}
	for _, id := range ids {
		if err := ValidateATLASID(id); err != nil {
			return nil, err
		}
	}
	chunks := chunkIDs(ids, BatchSize)
	out := &BatchResult{Responses: make([]*Response, 0, len(chunks))}
	for i, chunk := range chunks {
		resp, err := c.Call(ctx, ep, build(strings.Join(chunk, ",")))
		if err != nil {
			return out, err
		}
		c.log.WithField("endpoint", ep.Suffix).Debugf("batch %d/%d sent (%d ids)", i+1, len(chunks), len(chunk))
		out.Responses = append(out.Responses, resp)
		switch data := resp.Data.(type) {
		case []any:
			out.Items = append(out.Items, data...)
		default:
			out.Items = append(out.Items, data)
		}
	}
	return out, nil
}
