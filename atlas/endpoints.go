package atlas

// Endpoint describes one server call: its URL suffix relative to the base URL
// and whether an empty payload is a caller error.
type Endpoint struct {
	Name           string
	Suffix         string
	RequirePayload bool
}

// Server endpoints.
var (
	EndpointVRAScores      = Endpoint{Name: "vra scores", Suffix: "vrascoreslist/", RequirePayload: true}
	EndpointVRAToDoList    = Endpoint{Name: "vra to-do list", Suffix: "vratodolist/", RequirePayload: true}
	EndpointCustomLists    = Endpoint{Name: "custom lists table", Suffix: "objectgroupslist/", RequirePayload: true}
	EndpointObjects        = Endpoint{Name: "source data", Suffix: "objects/", RequirePayload: true}
	EndpointConeSearch     = Endpoint{Name: "cone search", Suffix: "cone/", RequirePayload: true}
	EndpointObjectList     = Endpoint{Name: "object list", Suffix: "objectlist/", RequirePayload: true}
	EndpointWriteVRAScore  = Endpoint{Name: "write vra score", Suffix: "vrascores/", RequirePayload: true}
	EndpointWriteVRARank   = Endpoint{Name: "write vra rank", Suffix: "vrarank/", RequirePayload: true}
	EndpointWriteToDo      = Endpoint{Name: "write to-do", Suffix: "vratodo/", RequirePayload: true}
	EndpointAddToList      = Endpoint{Name: "add to custom list", Suffix: "objectgroups/", RequirePayload: true}
	EndpointRemoveFromList = Endpoint{Name: "remove from custom list", Suffix: "objectgroupsdelete/", RequirePayload: true}
)

// Endpoints lists every known endpoint.
func Endpoints() []Endpoint {
	return []Endpoint{
		EndpointVRAScores,
		EndpointVRAToDoList,
		EndpointCustomLists,
		EndpointObjects,
		EndpointConeSearch,
		EndpointObjectList,
		EndpointWriteVRAScore,
		EndpointWriteVRARank,
		EndpointWriteToDo,
		EndpointAddToList,
		EndpointRemoveFromList,
	}
}
