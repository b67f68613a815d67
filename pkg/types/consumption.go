package types

import (
	"fmt"
	"strings"
)

// ResourceKind is the portlet resource id selecting which consumption feed a
// data request targets.
type ResourceKind string

const (
	ResourceHour  ResourceKind = "urlCdcHeure"
	ResourceDay   ResourceKind = "urlCdcJour"
	ResourceMonth ResourceKind = "urlCdcMois"
	ResourceYear  ResourceKind = "urlCdcAn"
)

var granularities = map[string]ResourceKind{
	"hour":  ResourceHour,
	"day":   ResourceDay,
	"month": ResourceMonth,
	"year":  ResourceYear,
}

// Granularities lists the supported granularity names from finest to
// coarsest.
var Granularities = []string{"hour", "day", "month", "year"}

// ParseGranularity maps a granularity name (hour, day, month, year) to its
// resource kind.
func ParseGranularity(name string) (ResourceKind, error) {
	if k, ok := granularities[strings.ToLower(strings.TrimSpace(name))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown granularity: %q", name)
}

// Granularity returns the human name of the resource kind.
func (k ResourceKind) Granularity() string {
	for name, kind := range granularities {
		if kind == k {
			return name
		}
	}
	return string(k)
}

// NeedsRange reports whether requests for this kind carry a date range. Only
// the yearly feed is requested without one.
func (k ResourceKind) NeedsRange() bool {
	return k != ResourceYear
}

// Consumption is a decoded consumption document exactly as the portal
// returned it. Its shape is owned by the portal and is not validated.
type Consumption = any
