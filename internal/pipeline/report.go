package pipeline

import (
	"log/slog"
	"time"

	"github.com/erzurum-ulasim/routegeom/internal/export"
	"github.com/erzurum-ulasim/routegeom/internal/stopindex"
)

// Summary is the JSON form of a run's diagnostics, without coordinates.
type Summary struct {
	RunID           string                            `json:"runId"`
	GeneratedAt     time.Time                         `json:"generatedAt"`
	DurationMs      int64                             `json:"durationMs"`
	Stops           int                               `json:"stops"`
	Lines           []string                          `json:"lines"`
	Missing         []export.Missing                  `json:"missing"`
	MissingTotal    int                               `json:"missingTotal"`
	Omitted         []*stopindex.MalformedRecordError `json:"omitted"`
	OmittedByReason map[stopindex.Reason]int          `json:"omittedByReason"`
	Duplicates      []string                          `json:"duplicates"`
	Splits          []SplitLine                       `json:"splits"`
	Unsplit         []Unsplit                         `json:"unsplit"`
	Clusters        [][]string                        `json:"clusters"`
}

// Summary returns the diagnostics of r. Empty lists are non-nil so they
// encode as [].
func (r *Result) Summary() Summary {
	s := Summary{
		RunID:           r.RunID,
		GeneratedAt:     r.Collection.GeneratedAt,
		DurationMs:      r.Duration.Milliseconds(),
		Stops:           r.Stops,
		Lines:           r.Collection.Names(),
		Missing:         r.Collection.Missing,
		MissingTotal:    r.Collection.MissingCount(),
		Omitted:         r.Report.Omitted,
		OmittedByReason: r.Report.CountByReason(),
		Duplicates:      r.Report.Duplicates,
		Splits:          r.Splits,
		Unsplit:         r.Unsplit,
		Clusters:        r.Clusters,
	}
	if s.Missing == nil {
		s.Missing = []export.Missing{}
	}
	if s.Omitted == nil {
		s.Omitted = []*stopindex.MalformedRecordError{}
	}
	if s.Duplicates == nil {
		s.Duplicates = []string{}
	}
	if s.Splits == nil {
		s.Splits = []SplitLine{}
	}
	if s.Unsplit == nil {
		s.Unsplit = []Unsplit{}
	}
	if s.Clusters == nil {
		s.Clusters = [][]string{}
	}
	return s
}

// LogReport writes the diagnostics of r to logger: one line per omitted
// record, missing list, unsplit line and cluster, then a summary line.
func LogReport(logger *slog.Logger, r *Result) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("run_id", r.RunID))

	for _, o := range r.Report.Omitted {
		attrs := []any{
			slog.String("source", o.Source),
			slog.Int("line", o.Line),
			slog.String("stop_id", o.StopID),
			slog.String("reason", string(o.Reason)),
		}
		if o.Err != nil {
			attrs = append(attrs, slog.String("detail", o.Err.Error()))
		}
		logger.Debug("record_omitted", attrs...)
	}
	for _, id := range r.Report.Duplicates {
		logger.Debug("duplicate_stop", slog.String("stop_id", id))
	}
	for _, m := range r.Collection.Missing {
		logger.Warn("stops_missing",
			slog.String("line", m.Line),
			slog.Int("count", len(m.StopIDs)),
			slog.Any("stop_ids", m.StopIDs))
	}
	for _, s := range r.Splits {
		logger.Info("turnaround_split",
			slog.String("line", s.Line),
			slog.Int("index", s.Detection.Index),
			slog.String("outbound", s.Outbound),
			slog.String("inbound", s.Inbound),
			slog.Float64("avg_step_m", s.Detection.AvgStep))
	}
	for _, u := range r.Unsplit {
		logger.Info("turnaround_not_found", slog.String("line", u.Line), slog.String("reason", u.Reason))
	}
	for _, c := range r.Clusters {
		logger.Debug("stop_cluster", slog.Any("stop_ids", c))
	}

	byReason := r.Report.CountByReason()
	counts := make([]any, 0, len(stopindex.Reasons))
	for _, reason := range stopindex.Reasons {
		counts = append(counts, slog.Int(string(reason), byReason[reason]))
	}
	logger.Info("run_report",
		slog.Int("stops", r.Stops),
		slog.Int("lines", len(r.Collection.Lines)),
		slog.Int("missing", r.Collection.MissingCount()),
		slog.Int("duplicates", len(r.Report.Duplicates)),
		slog.Int("clusters", len(r.Clusters)),
		slog.Group("omitted", counts...))
}
