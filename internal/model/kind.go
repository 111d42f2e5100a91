package model

import "strings"

type Kind string

const (
	KindModel            Kind = "model"
	KindPackage          Kind = "package"
	KindClass            Kind = "class"
	KindAssociationClass Kind = "association_class"
	KindInterface        Kind = "interface"
	KindEnumeration      Kind = "enumeration"
	KindDataType         Kind = "datatype"
	KindActor            Kind = "actor"
	KindUseCase          Kind = "usecase"
	KindAttribute        Kind = "attribute"
	KindOperation        Kind = "operation"
	KindParameter        Kind = "parameter"
	KindLiteral          Kind = "literal"
	KindAssociation      Kind = "association"
	KindAssociationEnd   Kind = "association_end"
	KindGeneralization   Kind = "generalization"
	KindDependency       Kind = "dependency"
	KindInclude          Kind = "include"
	KindExtend           Kind = "extend"
	KindExtensionPoint   Kind = "extension_point"
	KindDiagram          Kind = "diagram"
)

var kindLabels = map[Kind]string{
	KindModel:            "Model",
	KindPackage:          "Package",
	KindClass:            "Class",
	KindAssociationClass: "Association Class",
	KindInterface:        "Interface",
	KindEnumeration:      "Enumeration",
	KindDataType:         "Data Type",
	KindActor:            "Actor",
	KindUseCase:          "Use Case",
	KindAttribute:        "Attribute",
	KindOperation:        "Operation",
	KindParameter:        "Parameter",
	KindLiteral:          "Literal",
	KindAssociation:      "Association",
	KindAssociationEnd:   "Association End",
	KindGeneralization:   "Generalization",
	KindDependency:       "Dependency",
	KindInclude:          "Include",
	KindExtend:           "Extend",
	KindExtensionPoint:   "Extension Point",
	KindDiagram:          "Diagram",
}

var diagramLabels = map[DiagramKind]string{
	DiagramClass:         "Class Diagram",
	DiagramUseCase:       "Use Case Diagram",
	DiagramSequence:      "Sequence Diagram",
	DiagramCollaboration: "Collaboration Diagram",
	DiagramActivity:      "Activity Diagram",
	DiagramDeployment:    "Deployment Diagram",
	DiagramStateChart:    "State Chart Diagram",
}

// Label is the human-readable kind name used in headings and placeholders.
func (k Kind) Label() string {
	if l, ok := kindLabels[k]; ok {
		return l
	}
	return string(k)
}

func (k DiagramKind) Label() string {
	if l, ok := diagramLabels[k]; ok {
		return l
	}
	return "Diagram"
}

// ParseKind accepts the document spelling of an element kind
// ("use_case", "UseCase" and "usecase" are equivalent).
func ParseKind(s string) (Kind, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	switch norm {
	case "use_case":
		norm = "usecase"
	case "data_type":
		norm = "datatype"
	case "associationclass":
		norm = "association_class"
	case "extensionpoint":
		norm = "extension_point"
	case "associationend":
		norm = "association_end"
	}
	k := Kind(norm)
	if _, ok := kindLabels[k]; !ok {
		return "", false
	}
	return k, true
}

// UnnamedLabel returns the placeholder used for entities without a name.
func UnnamedLabel(e Entity) string {
	if d, ok := e.(*Diagram); ok {
		return "Unnamed " + d.Type.Label()
	}
	return "Unnamed " + e.Kind().Label()
}

// DisplayName is the entity name, or the "Unnamed <Kind>" placeholder when
// the name is empty.
func DisplayName(e Entity) string {
	if e == nil {
		return ""
	}
	name := strings.TrimSpace(e.Base().Name)
	if name != "" {
		return name
	}
	return UnnamedLabel(e)
}

// Icon names the small glyph drawn next to a label. Empty for kinds
// without one.
func Icon(e Entity) string {
	switch e.(type) {
	case *UseCase:
		return "UseCase"
	case *Actor:
		return "Actor"
	case *Class, *AssociationClass:
		return "Class"
	case *Interface:
		return "Interface"
	case *Enumeration:
		return "Enumeration"
	}
	return ""
}
