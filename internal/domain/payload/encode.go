package payload

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/okian/trajectory/internal/domain/analytics"
)

type metadataJSON struct {
	GeneratedAt       string   `json:"generated_at"`
	RunID             string   `json:"run_id"`
	TotalPersons      int64    `json:"total_persons"`
	TotalJobs         int64    `json:"total_jobs"`
	DataFiles         []string `json:"data_files"`
	RecordsSkipped    int64    `json:"records_skipped"`
	DegenerateMetrics []string `json:"degenerate_metrics"`
}

type velocityJSON struct {
	MedianMonths  float64 `json:"median_months"`
	SampleSize    int     `json:"sample_size"`
	LowConfidence bool    `json:"low_confidence"`
}

type pathJSON struct {
	Path      []string `json:"path"`
	Frequency int      `json:"frequency"`
}

// object writes a JSON object whose keys keep insertion order.
type object struct {
	buf   bytes.Buffer
	count int
	err   error
}

func (o *object) field(key string, v any) {
	if o.err != nil {
		return
	}
	if o.count == 0 {
		o.buf.WriteByte('{')
	} else {
		o.buf.WriteByte(',')
	}
	o.count++
	k, err := marshal(key)
	if err != nil {
		o.err = err
		return
	}
	o.buf.Write(k)
	o.buf.WriteByte(':')
	if raw, ok := v.(json.RawMessage); ok {
		o.buf.Write(raw)
		return
	}
	val, err := marshal(v)
	if err != nil {
		o.err = err
		return
	}
	o.buf.Write(val)
}

func (o *object) bytes() (json.RawMessage, error) {
	if o.err != nil {
		return nil, o.err
	}
	if o.count == 0 {
		return json.RawMessage("{}"), nil
	}
	o.buf.WriteByte('}')
	return o.buf.Bytes(), nil
}

// MarshalJSON encodes the payload with metrics as objects keyed by label, in
// rank order.
func (p *Payload) MarshalJSON() ([]byte, error) {
	m := p.Metadata
	meta := metadataJSON{
		GeneratedAt:       m.GeneratedAt.UTC().Format(time.RFC3339),
		RunID:             m.RunID,
		TotalPersons:      m.TotalPersons,
		TotalJobs:         m.TotalJobs,
		DataFiles:         orEmpty(m.DataFiles),
		RecordsSkipped:    m.RecordsSkipped,
		DegenerateMetrics: orEmpty(m.DegenerateMetrics),
	}

	var velocity object
	for _, v := range p.PromotionVelocity {
		velocity.field(v.Key(), velocityJSON{
			MedianMonths:  v.MedianMonths,
			SampleSize:    v.SampleSize,
			LowConfidence: v.LowConfidence,
		})
	}

	var paths object
	for _, rp := range p.PathsToRole {
		list := make([]pathJSON, len(rp.Paths))
		for i, pc := range rp.Paths {
			list[i] = pathJSON{Path: pc.Path, Frequency: pc.Frequency}
		}
		paths.field(rp.Target, list)
	}

	sections := []struct {
		key  string
		body func() (json.RawMessage, error)
	}{
		{analytics.MetricPromotionVelocity, velocity.bytes},
		{analytics.MetricRoleTransitions, distributions(p.RoleTransitions)},
		{analytics.MetricMajorToFirstRole, distributions(p.MajorToFirstRole)},
		{analytics.MetricIndustryTransitions, distributions(p.IndustryTransitions)},
		{analytics.MetricPathsToRole, paths.bytes},
	}

	var doc object
	doc.field("metadata", meta)
	for _, s := range sections {
		raw, err := s.body()
		if err != nil {
			return nil, err
		}
		doc.field(s.key, raw)
	}
	return doc.bytes()
}

func distributions(ds []analytics.Distribution) func() (json.RawMessage, error) {
	return func() (json.RawMessage, error) {
		var out object
		for _, d := range ds {
			var targets object
			for _, s := range d.Targets {
				targets.field(s.Label, s.Probability)
			}
			raw, err := targets.bytes()
			if err != nil {
				return nil, err
			}
			out.field(d.Source, raw)
		}
		return out.bytes()
	}
}

// Encode renders p as indented JSON. Labels are written verbatim, without HTML
// escaping.
func Encode(p *Payload) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
