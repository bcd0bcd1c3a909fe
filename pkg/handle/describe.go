package handle

import (
	"errors"
	"fmt"

	"github.com/sanonone/noisegraph/pkg/metadata"
	"github.com/sanonone/noisegraph/pkg/noise"
)

// ErrUnknownKind means a type id is outside the registry.
var ErrUnknownKind = errors.New("unknown node type id")

// MemberInfo is a read-only copy of one member descriptor. Numeric fields
// hold the float value for float members and the integer for int and enum
// members.
type MemberInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type"`
	Default     float64  `json:"default"`
	Min         float64  `json:"min,omitempty"`
	Max         float64  `json:"max,omitempty"`
	Options     []string `json:"options,omitempty"`
	Requires    string   `json:"requires,omitempty"`
}

// KindInfo describes one node kind.
type KindInfo struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Groups      []string     `json:"groups,omitempty"`
	Description string       `json:"description,omitempty"`
	Variables   []MemberInfo `json:"variables,omitempty"`
	Sources     []MemberInfo `json:"sources,omitempty"`
	Hybrids     []MemberInfo `json:"hybrids,omitempty"`
}

// MetadataCount returns the number of node kinds; valid ids are 0 to
// MetadataCount()-1.
func MetadataCount() int { return noise.Registry().Len() }

func lookup(id int) (*metadata.Metadata, error) {
	if id < 0 || id > 0xFFFF {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, id)
	}
	m, ok := noise.Registry().ByID(uint16(id))
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, id)
	}
	return m, nil
}

// MetadataName returns the registered name of kind id.
func MetadataName(id int) (string, error) {
	m, err := lookup(id)
	if err != nil {
		return "", err
	}
	return m.Name, nil
}

// MetadataVariables returns the variables of kind id in index order.
func MetadataVariables(id int) ([]MemberInfo, error) {
	info, err := Describe(id)
	return info.Variables, err
}

// MetadataSources returns the source slots of kind id in index order.
func MetadataSources(id int) ([]MemberInfo, error) {
	info, err := Describe(id)
	return info.Sources, err
}

// MetadataHybrids returns the hybrid slots of kind id in index order.
func MetadataHybrids(id int) ([]MemberInfo, error) {
	info, err := Describe(id)
	return info.Hybrids, err
}

// Describe returns everything known about kind id.
func Describe(id int) (KindInfo, error) {
	m, err := lookup(id)
	if err != nil {
		return KindInfo{}, err
	}
	info := KindInfo{
		ID:          int(m.ID),
		Name:        m.Name,
		DisplayName: metadata.FormatNodeName(m, false),
		Groups:      m.Groups,
		Description: m.Description,
	}
	for _, v := range m.Variables {
		mi := MemberInfo{
			Name:        metadata.FormatMemberName(&v.Member),
			Description: v.Description,
			Type:        v.Type.String(),
			Options:     v.EnumNames,
		}
		if v.Type == metadata.Float {
			mi.Default, mi.Min, mi.Max = float64(v.Default.Float()), float64(v.Min.Float()), float64(v.Max.Float())
		} else {
			mi.Default, mi.Min, mi.Max = float64(v.Default.Int()), float64(v.Min.Int()), float64(v.Max.Int())
		}
		info.Variables = append(info.Variables, mi)
	}
	for _, s := range m.Sources {
		info.Sources = append(info.Sources, MemberInfo{
			Name:        s.Name,
			Description: s.Description,
			Type:        "source",
			Requires:    s.Requires,
		})
	}
	for _, h := range m.Hybrids {
		info.Hybrids = append(info.Hybrids, MemberInfo{
			Name:        metadata.FormatMemberName(&h.Member),
			Description: h.Description,
			Type:        "hybrid",
			Default:     float64(h.Default),
		})
	}
	return info, nil
}
