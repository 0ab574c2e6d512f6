// Package ioload decodes the declarative inputs the surrounding adapter
// supplies to the core: the reach table. Timeseries and substance
// parameter payloads are treated as opaque byte blobs passed through to
// the driver and are not parsed here, per the core/adapter boundary.
package ioload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xlandscape/catchflow/internal/catchment"
)

// ReachRecord is one row of the reach table: a reach's static attributes
// plus its declared downstream neighbor.
type ReachRecord struct {
	ID               string   `yaml:"id"`
	DownstreamIDs    []string `yaml:"downstreamIds"`
	Length           float64  `yaml:"length"`
	Width            float64  `yaml:"width"`
	BankSlope        float64  `yaml:"bankSlope"`
	SuspendedSolids  float64  `yaml:"suspendedSolids"`
	OrganicMatter    float64  `yaml:"organicMatter"`
	BulkDensity      float64  `yaml:"bulkDensity"`
	Porosity         float64  `yaml:"porosity"`
	CentroidX        float64  `yaml:"centroidX"`
	CentroidY        float64  `yaml:"centroidY"`
	NSegments        int      `yaml:"nSegments"`
	HasDirectLoading bool     `yaml:"hasDirectLoading"`
}

// ReachTable is the decoded list of ReachRecord, keyed implicitly by ID.
type ReachTable struct {
	Reaches []ReachRecord `yaml:"reaches"`
}

// LoadReachTable decodes a reach table from path.
func LoadReachTable(path string) (ReachTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReachTable{}, fmt.Errorf("reading reach table %q: %w", path, err)
	}
	var table ReachTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return ReachTable{}, fmt.Errorf("parsing reach table %q: %w", path, err)
	}
	return table, nil
}

// BuildCatchment constructs and finalizes a Catchment from a decoded
// ReachTable.
func BuildCatchment(table ReachTable) (*catchment.Catchment, error) {
	c := catchment.NewCatchment()
	for _, r := range table.Reaches {
		downstream := make([]catchment.ReachID, len(r.DownstreamIDs))
		for i, d := range r.DownstreamIDs {
			downstream[i] = catchment.ReachID(d)
		}
		attrs := catchment.Attributes{
			Length:           r.Length,
			Width:            r.Width,
			BankSlope:        r.BankSlope,
			SuspendedSolids:  r.SuspendedSolids,
			OrganicMatter:    r.OrganicMatter,
			BulkDensity:      r.BulkDensity,
			Porosity:         r.Porosity,
			CentroidX:        r.CentroidX,
			CentroidY:        r.CentroidY,
			NSegments:        r.NSegments,
			HasDirectLoading: r.HasDirectLoading,
		}
		if err := c.AddReach(catchment.ReachID(r.ID), attrs, downstream); err != nil {
			return nil, err
		}
	}
	if err := c.Finalize(); err != nil {
		return nil, err
	}
	return c, nil
}
