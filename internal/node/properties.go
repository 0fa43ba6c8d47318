package node

import (
	"fmt"

	"webflowcms/internal/types"
)

const (
	ResourceItem       = "item"
	ResourceCollection = "collection"

	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpGet       = "get"
	OpGetAll    = "getAll"
	OpGetFields = "getFields"
)

// Option loader names referenced by properties.
const (
	LoadSites       = "getSites"
	LoadCollections = "getCollections"
	LoadFields      = "getFields"
)

// Property describes one node parameter for a form renderer.
type Property struct {
	Name                 string           `json:"name" yaml:"name"`
	DisplayName          string           `json:"displayName" yaml:"displayName"`
	Type                 string           `json:"type" yaml:"type"`
	Required             bool             `json:"required,omitempty" yaml:"required,omitempty"`
	Default              any              `json:"default" yaml:"default"`
	Description          string           `json:"description,omitempty" yaml:"description,omitempty"`
	Placeholder          string           `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options              []PropertyOption `json:"options,omitempty" yaml:"options,omitempty"`
	MultipleValues       bool             `json:"multipleValues,omitempty" yaml:"multipleValues,omitempty"`
	MinValue             *float64         `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	LoadOptionsMethod    string           `json:"loadOptionsMethod,omitempty" yaml:"loadOptionsMethod,omitempty"`
	LoadOptionsDependsOn []string         `json:"loadOptionsDependsOn,omitempty" yaml:"loadOptionsDependsOn,omitempty"`
	DisplayOptions       *DisplayOptions  `json:"displayOptions,omitempty" yaml:"displayOptions,omitempty"`
	Values               []Property       `json:"values,omitempty" yaml:"values,omitempty"`
	Collections          []PropertyGroup  `json:"collections,omitempty" yaml:"collections,omitempty"`
}

// PropertyOption is a static choice, or a nested property inside a
// "collection" parameter.
type PropertyOption struct {
	Name        string `json:"name" yaml:"name"`
	Value       any    `json:"value" yaml:"value"`
	Action      string `json:"action,omitempty" yaml:"action,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// PropertyGroup is a named repeated group of a fixedCollection.
type PropertyGroup struct {
	Name        string     `json:"name" yaml:"name"`
	DisplayName string     `json:"displayName" yaml:"displayName"`
	Values      []Property `json:"values" yaml:"values"`
}

// DisplayOptions shows a property only when every listed parameter has
// one of the listed values.
type DisplayOptions struct {
	Show map[string][]any `json:"show" yaml:"show"`
}

// Visible evaluates the display conditions against values.
func (p Property) Visible(values map[string]any) bool {
	if p.DisplayOptions == nil {
		return true
	}
	for key, allowed := range p.DisplayOptions.Show {
		v, ok := values[key]
		if !ok {
			return false
		}
		matched := false
		for _, a := range allowed {
			if fmt.Sprint(a) == fmt.Sprint(v) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// FieldDef summarizes the property for connector catalogues. A required
// boolean always has a value, so callers need not supply it.
func (p Property) FieldDef() types.FieldDef {
	t := p.Type
	switch p.Type {
	case "options":
		t = "string"
	case "collection", "fixedCollection":
		t = "object"
	}
	return types.FieldDef{Type: t, Description: p.Description, Required: p.Required && p.Type != "boolean"}
}

// NodeDescription is the complete declarative description of the node.
type NodeDescription struct {
	DisplayName string     `json:"displayName" yaml:"displayName"`
	Name        string     `json:"name" yaml:"name"`
	Version     int        `json:"version" yaml:"version"`
	Description string     `json:"description" yaml:"description"`
	Credentials []string   `json:"credentials" yaml:"credentials"`
	BaseURL     string     `json:"baseURL" yaml:"baseURL"`
	Properties  []Property `json:"properties" yaml:"properties"`
}

// Operation is one resource/operation pair the node exposes.
type Operation struct {
	Resource    string
	Name        string
	Action      string
	Description string
}

var operations = []Operation{
	{ResourceItem, OpCreate, "Create a CMS item", "Create a new item in a collection"},
	{ResourceItem, OpDelete, "Delete a CMS item", "Delete an item from a collection"},
	{ResourceItem, OpGet, "Get a CMS item", "Get a single item from a collection"},
	{ResourceItem, OpGetAll, "Get many CMS items", "Get multiple items from a collection"},
	{ResourceItem, OpUpdate, "Update a CMS item", "Update an item in a collection"},
	{ResourceCollection, OpGetFields, "Get fields of a CMS collection", "Retrieve all field definitions from a collection"},
}

// Operations lists every operation in display order.
func Operations() []Operation {
	return append([]Operation(nil), operations...)
}

func show(resource, operation string) *DisplayOptions {
	return &DisplayOptions{Show: map[string][]any{
		"resource":  {resource},
		"operation": {operation},
	}}
}

func siteProperty() Property {
	return Property{
		Name:              "siteId",
		DisplayName:       "Site Name or ID",
		Type:              "options",
		Required:          true,
		Default:           "",
		LoadOptionsMethod: LoadSites,
		Description:       "ID of the site containing the collection. Choose from the list, or specify an ID using an expression.",
	}
}

func collectionProperty(purpose string) Property {
	return Property{
		Name:                 "collectionId",
		DisplayName:          "Collection Name or ID",
		Type:                 "options",
		Required:             true,
		Default:              "",
		LoadOptionsMethod:    LoadCollections,
		LoadOptionsDependsOn: []string{"siteId"},
		Description:          fmt.Sprintf("ID of the collection %s. Choose from the list, or specify an ID using an expression.", purpose),
	}
}

func itemIDProperty(purpose string) Property {
	return Property{
		Name:        "itemId",
		DisplayName: "Item ID",
		Type:        "string",
		Required:    true,
		Default:     "",
		Description: "ID of the item to " + purpose,
	}
}

func liveProperty(description string) Property {
	return Property{
		Name:        "live",
		DisplayName: "Publish to Live Site",
		Type:        "boolean",
		Required:    true,
		Default:     false,
		Description: description,
	}
}

func fieldsProperty(fieldDescription, valueDescription string) Property {
	return Property{
		Name:           "fieldsUi",
		DisplayName:    "Fields",
		Type:           "fixedCollection",
		Placeholder:    "Add Field",
		MultipleValues: true,
		Default:        map[string]any{},
		Collections: []PropertyGroup{{
			Name:        "fieldValues",
			DisplayName: "Field",
			Values: []Property{
				{
					Name:                 "fieldId",
					DisplayName:          "Field Name or ID",
					Type:                 "options",
					Default:              "",
					LoadOptionsMethod:    LoadFields,
					LoadOptionsDependsOn: []string{"collectionId"},
					Description:          fieldDescription,
				},
				{
					Name:        "fieldValue",
					DisplayName: "Field Value",
					Type:        "string",
					Default:     "",
					Description: valueDescription,
				},
			},
		}},
	}
}

func operationProperties() map[Operation][]Property {
	one := 1.0
	props := map[Operation][]Property{}

	props[operations[0]] = []Property{ // create
		siteProperty(),
		collectionProperty("to add an item to"),
		liveProperty("Whether the item should be published on the live site"),
		fieldsProperty("Field to set for the item to create", "Value to set for the item to create"),
	}
	props[operations[1]] = []Property{ // delete
		siteProperty(),
		collectionProperty("containing the item to delete"),
		itemIDProperty("delete"),
	}
	props[operations[2]] = []Property{ // get
		siteProperty(),
		collectionProperty("containing the item to retrieve"),
		itemIDProperty("retrieve"),
	}
	props[operations[3]] = []Property{ // getAll
		siteProperty(),
		collectionProperty("to retrieve items from"),
		{
			Name:        "returnAll",
			DisplayName: "Return All",
			Type:        "boolean",
			Default:     false,
			Description: "Whether to return all results or only up to a given limit",
		},
		{
			Name:           "limit",
			DisplayName:    "Limit",
			Type:           "number",
			Default:        DefaultLimit,
			MinValue:       &one,
			Description:    "Max number of results to return",
			DisplayOptions: &DisplayOptions{Show: map[string][]any{"returnAll": {false}}},
		},
		{
			Name:        "additionalFields",
			DisplayName: "Additional Fields",
			Type:        "collection",
			Placeholder: "Add Field",
			Default:     map[string]any{},
			Values: []Property{
				{
					Name:        "sort",
					DisplayName: "Sort",
					Type:        "string",
					Default:     "",
					Description: `Field to sort items by (e.g., "created-on" for ascending, "-created-on" for descending)`,
				},
				{
					Name:        "filter",
					DisplayName: "Filter",
					Type:        "string",
					Default:     "",
					Placeholder: "name=Test Item",
					Description: `Filter expression to apply (format: "{field}={value}", e.g., "name=Test Item")`,
				},
			},
		},
	}
	props[operations[4]] = []Property{ // update
		siteProperty(),
		collectionProperty("containing the item to update"),
		itemIDProperty("update"),
		liveProperty("Whether the updated item should be published on the live site"),
		fieldsProperty("Field to update for the item", "Value to set for the field"),
	}
	props[operations[5]] = []Property{ // getFields
		siteProperty(),
		collectionProperty("to get fields from"),
		{
			Name:        "options",
			DisplayName: "Options",
			Type:        "collection",
			Placeholder: "Add Option",
			Default:     map[string]any{},
			Values: []Property{
				{
					Name:        "includeSystemFields",
					DisplayName: "Include System Fields",
					Type:        "boolean",
					Default:     false,
					Description: "Whether to include system fields like _id, _archived, etc",
				},
				{
					Name:        "includeMetadata",
					DisplayName: "Include Field Metadata",
					Type:        "boolean",
					Default:     true,
					Description: "Whether to include additional field metadata like type, validations, etc",
				},
			},
		},
	}
	return props
}

func resourceProperty() Property {
	return Property{
		Name:        "resource",
		DisplayName: "Resource",
		Type:        "options",
		Required:    true,
		Default:     ResourceItem,
		Options: []PropertyOption{
			{Name: "Item", Value: ResourceItem, Description: "Work with CMS collection items"},
			{Name: "Collection", Value: ResourceCollection, Description: "Work with Webflow CMS collections"},
		},
	}
}

func operationProperty(resource string, def string) Property {
	p := Property{
		Name:           "operation",
		DisplayName:    "Operation",
		Type:           "options",
		Required:       true,
		Default:        def,
		DisplayOptions: &DisplayOptions{Show: map[string][]any{"resource": {resource}}},
	}
	for _, op := range operations {
		if op.Resource != resource {
			continue
		}
		p.Options = append(p.Options, PropertyOption{
			Name:        op.Action,
			Value:       op.Name,
			Action:      op.Action,
			Description: op.Description,
		})
	}
	return p
}

// Description returns the node description with every operation's
// properties merged with that operation's display conditions. The
// per-operation properties keep their own conditions as extra keys.
func Description() NodeDescription {
	props := []Property{
		resourceProperty(),
		operationProperty(ResourceItem, OpCreate),
		operationProperty(ResourceCollection, OpGetFields),
	}

	opProps := operationProperties()
	for _, op := range operations {
		for _, p := range opProps[op] {
			cond := show(op.Resource, op.Name)
			if p.DisplayOptions != nil {
				for k, v := range p.DisplayOptions.Show {
					cond.Show[k] = v
				}
			}
			p.DisplayOptions = cond
			props = append(props, p)
		}
	}

	return NodeDescription{
		DisplayName: "Webflow CMS",
		Name:        "webflowCms",
		Version:     1,
		Description: "Create, read, update and delete Webflow CMS collection items",
		Credentials: []string{"webflowOAuth2Api"},
		BaseURL:     "https://api.webflow.com/v2",
		Properties:  props,
	}
}

// PropertiesFor returns the parameters shown for a resource/operation
// pair, with unset parameters taking their defaults while evaluating
// display conditions.
func PropertiesFor(resource, operation string) []Property {
	all := Description().Properties

	values := map[string]any{"resource": resource, "operation": operation}
	for _, p := range all {
		if _, set := values[p.Name]; !set && p.Default != nil {
			if p.Visible(values) {
				values[p.Name] = p.Default
			}
		}
	}

	var out []Property
	for _, p := range all {
		if p.Name == "resource" || p.Name == "operation" {
			continue
		}
		if p.Visible(values) {
			out = append(out, p)
		}
	}
	return out
}
