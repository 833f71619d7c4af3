package geocode

import (
	"strings"

	"gta_pricer/models"
)

// Field names the parser knows how to extract from a geocode response.
type Field string

const (
	FieldStreetNumber     Field = "street_number"
	FieldRoute            Field = "route"
	FieldSublocality      Field = "sublocality"
	FieldLocality         Field = "locality"
	FieldPostalCode       Field = "postal_code"
	FieldFormattedAddress Field = "formatted_address"
	FieldLatitude         Field = "latitude"
	FieldLongitude        Field = "longitude"
)

// Value is a per-field extraction result. Valid is false when the response
// carries no usable value for the field; extraction never errors.
type Value struct {
	Str   string
	Num   float64
	Valid bool
}

func missing() Value { return Value{} }

func strValue(s string) Value { return Value{Str: s, Valid: true} }

func numValue(f float64) Value { return Value{Num: f, Valid: true} }

// StrPtr returns the string value as a nullable pointer.
func (v Value) StrPtr() *string {
	if !v.Valid {
		return nil
	}
	s := v.Str
	return &s
}

// NumPtr returns the numeric value as a nullable pointer.
func (v Value) NumPtr() *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Num
	return &f
}

// Extract pulls one named field out of a geocode response. Address
// components come from the first result; coordinates are averaged over all
// results so a handful of ambiguous matches still lands near the address.
func Extract(resp *models.GeocodeResponse, field Field) Value {
	if resp == nil || len(resp.Results) == 0 {
		return missing()
	}

	switch field {
	case FieldFormattedAddress:
		if addr := resp.Results[0].FormattedAddress; addr != "" {
			return strValue(addr)
		}
		return missing()
	case FieldLatitude:
		return meanCoordinate(resp, func(l models.LatLng) float64 { return l.Lat })
	case FieldLongitude:
		return meanCoordinate(resp, func(l models.LatLng) float64 { return l.Lng })
	default:
		return extractComponent(resp.Results[0].AddressComponents, field)
	}
}

// extractComponent returns the long name of the first component whose type
// tags match the field. Matching is by whole tag: a component typed only
// "sublocality" never satisfies FieldLocality.
func extractComponent(components []models.AddressComponent, field Field) Value {
	for _, comp := range components {
		if componentMatches(comp.Types, field) {
			if comp.LongName == "" {
				return missing()
			}
			return strValue(comp.LongName)
		}
	}
	return missing()
}

func componentMatches(types []string, field Field) bool {
	for _, t := range types {
		switch field {
		case FieldSublocality:
			// The provider emits leveled variants (sublocality_level_1).
			if t == string(FieldSublocality) || strings.HasPrefix(t, "sublocality_") {
				return true
			}
		default:
			if t == string(field) {
				return true
			}
		}
	}
	return false
}

func meanCoordinate(resp *models.GeocodeResponse, pick func(models.LatLng) float64) Value {
	var sum float64
	for _, r := range resp.Results {
		sum += pick(r.Geometry.Location)
	}
	return numValue(sum / float64(len(resp.Results)))
}
