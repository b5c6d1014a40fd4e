// Package dateparse turns free-text date input into concrete event start/end
// instants, with explicit ambiguity and timezone accounting.
package dateparse

import (
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

const (
	MethodNaturalLanguage = "natural-language"
	MethodLiteral         = "literal"
	MethodDefault         = "default"
)

const (
	defaultHour     = 18
	defaultDuration = 3 * time.Hour
	defaultLeadTime = 2 * time.Hour
)

// ParsedEventDate is the transient result of date resolution. It is consumed
// immediately by the creator and never stored.
type ParsedEventDate struct {
	StartTime     time.Time
	EndTime       time.Time
	OriginalInput string
	WasAmbiguous  bool
	Method        string
}

// Options tune a single resolution. The zero value means "use the resolver's
// defaults": reference = now, location = the resolver's default timezone.
type Options struct {
	Reference time.Time
	Location  *time.Location
}

type Resolver struct {
	parser   *when.Parser
	location *time.Location
	logger   *slog.Logger
}

// NewResolver creates a resolver with the given default timezone. The
// effective timezone of a resolution is Options.Location when set, this
// default otherwise.
func NewResolver(location *time.Location, logger *slog.Logger) *Resolver {
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)

	return &Resolver{
		parser:   parser,
		location: location,
		logger:   logger,
	}
}

var (
	clockPattern = regexp.MustCompile(`(?i)\d{1,2}:\d{2}|\d{1,2}\s*(am|pm)\b|\bnoon\b|\bmidnight\b|\bmorning\b|\bafternoon\b|\bevening\b|\btonight\b|\bnight\b`)
	yearPattern  = regexp.MustCompile(`\b\d{4}\b`)
	monthPattern = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\b|\d{4}-\d{1,2}|\d{1,2}/\d{1,2}`)
	isoPattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
)

var literalLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
	"January 2, 2006",
}

// Resolve converts a possibly-absent free-text date into start/end instants.
// Strategies are tried in order, first success wins: natural-language parse,
// literal layout parse, defaults (start = now+2h, end = start+3h). A parsed
// start outside one year before/after the reference instant is rejected and
// resolution falls through to the next strategy.
func (r *Resolver) Resolve(input string, opts Options) ParsedEventDate {
	location := opts.Location
	if location == nil {
		location = r.location
	}
	reference := opts.Reference
	if reference.IsZero() {
		reference = time.Now()
	}
	reference = reference.In(location)

	input = strings.TrimSpace(input)
	if input == "" {
		return r.defaults(reference, "")
	}

	// A fully literal input like "2024-12-14 18:00" must resolve to exactly
	// that instant; the natural-language rules would only pick up the clock
	// part of it.
	if !isoPattern.MatchString(input) {
		if parsed, ok := r.parseNaturalLanguage(input, reference, location); ok {
			return parsed
		}
	}

	if parsed, ok := r.parseLiteral(input, reference, location); ok {
		return parsed
	}

	r.logger.Info("Date parsing failed, using default event times", "input", input)
	return r.defaults(reference, input)
}

func (r *Resolver) parseNaturalLanguage(input string, reference time.Time, location *time.Location) (ParsedEventDate, bool) {
	result, err := r.parser.Parse(input, reference)
	if err != nil || result == nil {
		if err != nil {
			r.logger.Warn("Natural-language date parsing failed", "input", input, "error", err)
		}
		return ParsedEventDate{}, false
	}

	start := result.Time
	if !clockPattern.MatchString(input) {
		// no time of day stated, default to an evening event
		start = time.Date(start.Year(), start.Month(), start.Day(), defaultHour, 0, 0, 0, location)
	}

	if !withinValidityBound(start, reference) {
		r.logger.Warn("Parsed date outside validity bound", "input", input, "parsed", start)
		return ParsedEventDate{}, false
	}

	return ParsedEventDate{
		StartTime:     start,
		EndTime:       start.Add(defaultDuration),
		OriginalInput: input,
		WasAmbiguous:  !yearPattern.MatchString(input) || !monthPattern.MatchString(input),
		Method:        MethodNaturalLanguage,
	}, true
}

func (r *Resolver) parseLiteral(input string, reference time.Time, location *time.Location) (ParsedEventDate, bool) {
	for _, layout := range literalLayouts {
		start, err := time.ParseInLocation(layout, input, location)
		if err != nil {
			continue
		}

		if !withinValidityBound(start, reference) {
			r.logger.Warn("Literal date outside validity bound", "input", input, "parsed", start)
			return ParsedEventDate{}, false
		}

		// date-only input, default to an evening event
		if start.Hour() == 0 && start.Minute() == 0 {
			start = time.Date(start.Year(), start.Month(), start.Day(), defaultHour, 0, 0, 0, location)
		}

		return ParsedEventDate{
			StartTime:     start,
			EndTime:       start.Add(defaultDuration),
			OriginalInput: input,
			WasAmbiguous:  false,
			Method:        MethodLiteral,
		}, true
	}

	return ParsedEventDate{}, false
}

func (r *Resolver) defaults(reference time.Time, originalInput string) ParsedEventDate {
	start := reference.Add(defaultLeadTime)
	return ParsedEventDate{
		StartTime:     start,
		EndTime:       start.Add(defaultDuration),
		OriginalInput: originalInput,
		WasAmbiguous:  false,
		Method:        MethodDefault,
	}
}

func withinValidityBound(t, reference time.Time) bool {
	return !t.Before(reference.AddDate(-1, 0, 0)) && !t.After(reference.AddDate(1, 0, 0))
}

// Format renders an instant for user-facing display, qualified with the
// timezone it was resolved in.
func (r *Resolver) Format(t time.Time, location *time.Location) string {
	if location == nil {
		location = r.location
	}
	return Format(t, location)
}

// Format renders an instant for user-facing display in the given timezone.
func Format(t time.Time, location *time.Location) string {
	return t.In(location).Format("Monday, January 2, 2006 at 3:04 PM MST")
}

// Examples returns date phrases shown to users when their input could not be
// parsed.
func Examples() []string {
	return []string{
		"Saturday at 6pm",
		"next Friday at 7:30pm",
		"December 14th at 6pm",
		"tomorrow evening",
		"2024-12-14 18:00",
		"in 3 days at 5pm",
	}
}
