// Package normalize maps schema-variable source records onto the fixed
// internal record shape.
//
// Each logical field is resolved by an ordered chain of rules; the first
// rule that yields a value wins. The chains below are the whole contract:
// adding an alias means adding a rule, not touching the resolution code.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/okian/trajectory/internal/domain/level"
	"github.com/okian/trajectory/internal/domain/model"
)

// Person-level resolution chains.
var (
	personIDRules    = []Rule[string]{StringAt("id")}
	createdAtRules   = []Rule[time.Time]{TimeAt("created_at")}
	statusRules      = []Rule[string]{StringAt("employment_status")}
	connectionsRules = []Rule[int64]{IntAt("connections")}
	countryRules     = []Rule[string]{StringAt("location_details", "country"), StringAt("country")}
	cityRules        = []Rule[string]{StringAt("location_details", "locality")}
	jobsRules        = []Rule[[]Object]{ObjectsAt("jobs")}
	educationRules   = []Rule[[]Object]{ObjectsAt("education")}
)

// Job-level resolution chains. Company fields come only from the nested company object.
var (
	titleRules     = []Rule[string]{StringAt("title")}
	functionRules  = []Rule[string]{StringAt("function")}
	levelTextRules = []Rule[string]{StringAt("level"), StringAt("seniority"), StringAt("title")}
	companyRules   = []Rule[string]{StringAt("company", "name")}
	industryRules  = []Rule[string]{StringAt("company", "industry")}
	startRules     = []Rule[time.Time]{TimeAt("started_at")}
	endRules       = []Rule[time.Time]{TimeAt("ended_at")}
	durationRules  = []Rule[int64]{IntAt("duration")}
	tenureRules    = []Rule[int64]{IntAt("company_tenure")}
)

// Education-level resolution chains.
var (
	schoolRules = []Rule[string]{StringAt("school")}
	degreeRules = []Rule[string]{StringAt("degree")}
	fieldRules  = []Rule[string]{StringAt("field"), StringAt("major")}
)

// Change-event chains: nested changes object first, then top-level fields.
var (
	titleChangeRules   = []Rule[time.Time]{TimeAt("changes", "title_change_detected_at"), TimeAt("title_change_detected_at")}
	companyChangeRules = []Rule[time.Time]{TimeAt("changes", "company_change_detected_at"), TimeAt("company_change_detected_at")}
	infoChangeRules    = []Rule[time.Time]{TimeAt("changes", "info_change_detected_at"), TimeAt("info_change_detected_at")}
)

// Normalizer turns decoded source objects into records. It holds no mutable
// state and is safe for concurrent use.
type Normalizer struct {
	classifier *level.Classifier
	now        func() time.Time
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithClassifier sets the level classifier.
func WithClassifier(c *level.Classifier) Option {
	return func(n *Normalizer) {
		if c != nil {
			n.classifier = c
		}
	}
}

// WithClock sets the time source used to close open-ended jobs.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// New creates a Normalizer using the embedded level table and the wall clock.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		classifier: level.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Decode parses one corpus line into an object. Numbers are kept exact.
func Decode(line []byte) (Object, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	var obj Object
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedLine, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedLine)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrMalformedLine)
	}
	return obj, nil
}

// Normalize maps obj onto a Record. It fails with *MalformedRecordError when
// the identity field is absent.
func (n *Normalizer) Normalize(obj Object) (model.Record, error) {
	id, ok := Resolve(obj, personIDRules)
	if !ok {
		return model.Record{}, &MalformedRecordError{Field: "id", Reason: "missing or blank"}
	}

	rec := model.Record{
		Person: model.Person{
			ID:               id,
			CreatedAt:        ResolvePtr(obj, createdAtRules),
			EmploymentStatus: ResolvePtr(obj, statusRules),
			Connections:      ResolvePtr(obj, connectionsRules),
			Country:          ResolvePtr(obj, countryRules),
			City:             ResolvePtr(obj, cityRules),
		},
		Changes: model.ChangeEvent{
			PersonID:         id,
			TitleChangedAt:   ResolvePtr(obj, titleChangeRules),
			CompanyChangedAt: ResolvePtr(obj, companyChangeRules),
			InfoChangedAt:    ResolvePtr(obj, infoChangeRules),
		},
	}

	jobs, _ := Resolve(obj, jobsRules)
	rec.Jobs = make([]model.Job, 0, len(jobs))
	for _, j := range jobs {
		rec.Jobs = append(rec.Jobs, n.job(id, j))
	}

	edu, _ := Resolve(obj, educationRules)
	rec.Education = make([]model.Education, 0, len(edu))
	for _, e := range edu {
		rec.Education = append(rec.Education, model.Education{
			PersonID: id,
			School:   ResolvePtr(e, schoolRules),
			Degree:   ResolvePtr(e, degreeRules),
			Field:    ResolvePtr(e, fieldRules),
			Start:    ResolvePtr(e, startRules),
			End:      ResolvePtr(e, endRules),
		})
	}
	return rec, nil
}

func (n *Normalizer) job(personID string, obj Object) model.Job {
	j := model.Job{
		PersonID:    personID,
		Title:       ResolvePtr(obj, titleRules),
		Function:    ResolvePtr(obj, functionRules),
		Level:       model.LevelUnknown,
		CompanyName: ResolvePtr(obj, companyRules),
		Industry:    ResolvePtr(obj, industryRules),
		Start:       ResolvePtr(obj, startRules),
		End:         ResolvePtr(obj, endRules),
	}
	if text, ok := Resolve(obj, levelTextRules); ok {
		j.Level = n.classifier.Classify(text)
	}
	j.DurationMonths = n.months(obj, durationRules, j.Start, j.End)
	j.TenureMonths = n.months(obj, tenureRules, j.Start, j.End)
	return j
}

// months prefers a supplied integer, then computes from the job's dates.
func (n *Normalizer) months(obj Object, supplied []Rule[int64], start, end *time.Time) *int64 {
	if v, ok := Resolve(obj, supplied); ok {
		return &v
	}
	if start == nil {
		return nil
	}
	stop := n.now().UTC()
	if end != nil {
		stop = *end
	}
	m := model.MonthsBetween(*start, stop)
	return &m
}
