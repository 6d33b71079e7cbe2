package influxdb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	defaultQueryLimit = 1000
	maxQueryLimit     = 10000
)

// RangeQuery selects points of one measurement whose tags match Tags
// exactly, within [Start, End).
type RangeQuery struct {
	Measurement string
	Tags        map[string]string
	Start       time.Time
	End         time.Time
	Limit       int // per series; 0 means 1000, capped at 10000
}

// Point is a single stored field value.
type Point struct {
	Time  time.Time         `json:"time"`
	Field string            `json:"field"`
	Value any               `json:"value"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// QueryRange runs q as a Flux query and returns the points in result order.
func (c *Client) QueryRange(ctx context.Context, q RangeQuery) ([]Point, error) {
	if c == nil || !c.IsConnected() {
		return nil, ErrNotConnected
	}
	flux, err := buildRangeQuery(c.cfg.Bucket, q)
	if err != nil {
		return nil, err
	}

	result, err := c.client.QueryAPI(c.cfg.Org).Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer result.Close() //nolint:errcheck // read-only result

	var points []Point
	for result.Next() {
		rec := result.Record()
		p := Point{
			Time:  rec.Time(),
			Field: rec.Field(),
			Value: rec.Value(),
			Tags:  make(map[string]string),
		}
		for k, v := range rec.Values() {
			if strings.HasPrefix(k, "_") || k == "result" || k == "table" || v == nil {
				continue
			}
			p.Tags[k] = fmt.Sprint(v)
		}
		points = append(points, p)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return points, nil
}

// buildRangeQuery renders q as Flux. Tag filters are emitted in key order.
func buildRangeQuery(bucket string, q RangeQuery) (string, error) {
	if strings.TrimSpace(q.Measurement) == "" {
		return "", fmt.Errorf("%w: measurement is required", ErrInvalidQuery)
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return "", fmt.Errorf("%w: start and end are required", ErrInvalidQuery)
	}
	if !q.End.After(q.Start) {
		return "", fmt.Errorf("%w: end must be after start", ErrInvalidQuery)
	}

	limit := q.Limit
	switch {
	case limit <= 0:
		limit = defaultQueryLimit
	case limit > maxQueryLimit:
		limit = maxQueryLimit
	}

	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %s)\n", fluxString(bucket))
	fmt.Fprintf(&b, "  |> range(start: %s, stop: %s)\n",
		q.Start.UTC().Format(time.RFC3339Nano), q.End.UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %s)\n", fluxString(q.Measurement))

	keys := make([]string, 0, len(q.Tags))
	for k := range q.Tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  |> filter(fn: (r) => r[%s] == %s)\n", fluxString(k), fluxString(q.Tags[k]))
	}
	fmt.Fprintf(&b, "  |> limit(n: %d)", limit)
	return b.String(), nil
}

// fluxString quotes s as a Flux string literal.
func fluxString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "${", `\${`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
