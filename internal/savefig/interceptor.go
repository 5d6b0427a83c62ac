package savefig

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"trepro/internal/chart"
	"trepro/internal/codec"
	"trepro/internal/config"
	"trepro/internal/frame"
	"trepro/internal/logging"
	"trepro/internal/provenance"
)

// Collector supplies provenance for a save.
type Collector interface {
	Collect(ctx context.Context, includeDiff bool) provenance.Record
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithCollector replaces the provenance collector.
func WithCollector(c Collector) Option {
	return func(i *Interceptor) {
		if c != nil {
			i.collector = c
		}
	}
}

// WithoutProvenance embeds records with no provenance facts.
func WithoutProvenance() Option {
	return func(i *Interceptor) {
		i.collector = nil
	}
}

// WithLogger sets the interceptor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		i.logger = logging.NewComponentLogger(logger, "savefig")
	}
}

// WithExtensions replaces the set of extensions that receive metadata.
func WithExtensions(exts ...string) Option {
	return func(i *Interceptor) {
		set := make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			set[ext] = struct{}{}
		}
		i.extensions = set
	}
}

// WithIncludeDiff records the working tree diff with each save.
func WithIncludeDiff(include bool) Option {
	return func(i *Interceptor) {
		i.includeDiff = include
	}
}

// WithTrailer appends the length/checksum trailer after the frame.
func WithTrailer(enabled bool) Option {
	return func(i *Interceptor) {
		i.trailer = enabled
	}
}

// WithObservers registers observers notified after each save.
func WithObservers(observers ...Observer) Option {
	return func(i *Interceptor) {
		for _, o := range observers {
			if o != nil {
				i.observers = append(i.observers, o)
			}
		}
	}
}

// OptionsFromConfig translates the [save] and [provenance] sections.
func OptionsFromConfig(cfg *config.Config, logger *slog.Logger) []Option {
	if cfg == nil {
		return []Option{WithLogger(logger)}
	}
	opts := []Option{
		WithLogger(logger),
		WithExtensions(cfg.Save.EmbedExtensions...),
		WithTrailer(cfg.Save.Trailer),
		WithIncludeDiff(cfg.Provenance.IncludeDiff),
	}
	if cfg.Provenance.Enabled {
		opts = append(opts, WithCollector(provenance.NewFromConfig(cfg, logger)))
	} else {
		opts = append(opts, WithoutProvenance())
	}
	return opts
}

// Interceptor is a chart.Saver that appends a reproduction record to every
// supported file written by the wrapped saver.
type Interceptor struct {
	next        chart.Saver
	collector   Collector
	logger      *slog.Logger
	extensions  map[string]struct{}
	includeDiff bool
	trailer     bool
	observers   []Observer
}

var _ chart.Saver = (*Interceptor)(nil)

// NewInterceptor wraps next. Wrapping another Interceptor wraps its plain
// saver instead, so saves are never decorated twice.
func NewInterceptor(next chart.Saver, opts ...Option) *Interceptor {
	next = unwrap(next)
	if next == nil {
		next = chart.NewRenderer()
	}
	i := &Interceptor{
		next:      next,
		collector: provenance.New(),
		logger:    logging.NewComponentLogger(nil, "savefig"),
	}
	WithExtensions(config.DefaultEmbedExtensions...)(i)
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

func unwrap(saver chart.Saver) chart.Saver {
	for {
		inner, ok := saver.(*Interceptor)
		if !ok || inner == nil {
			return saver
		}
		saver = inner.next
	}
}

// Next returns the plain saver.
func (i *Interceptor) Next() chart.Saver {
	return i.next
}

// Supports reports whether files with ext receive metadata.
func (i *Interceptor) Supports(ext string) bool {
	_, ok := i.extensions[strings.ToLower(ext)]
	return ok
}

// Save writes fig through the plain saver and then appends the record. The
// plain saver's result and error are returned unchanged.
func (i *Interceptor) Save(ctx context.Context, fig *chart.Figure, destination string, opts ...chart.SaveOption) (chart.SaveResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ext := chart.Extension(destination, opts...)

	if !i.Supports(ext) {
		logging.WarnWithContext(i.logger, "metadata will not be saved for extension", "metadata_unsupported_extension",
			logging.String(logging.FieldPath, destination),
			logging.String(logging.FieldFormat, ext),
			logging.String(logging.FieldErrorHint, "save as one of "+i.supportedList()),
			logging.String(logging.FieldImpact, "file written without reproduction metadata"),
		)
		result, err := i.next.Save(ctx, fig, destination, opts...)
		if err == nil {
			i.notify(ctx, SaveEvent{Path: pathOf(result, destination), Extension: ext, Outcome: OutcomeSkipped, Result: result, Figure: fig})
		}
		return result, err
	}

	result, err := i.next.Save(ctx, fig, destination, opts...)
	if err != nil {
		return result, err
	}

	target := pathOf(result, destination)
	fig = result.Resolved(fig)
	event := SaveEvent{Path: target, Extension: ext, Result: result, Figure: fig}
	meta, frameBytes, err := i.embed(ctx, fig, target)
	if err != nil {
		logging.WarnWithContext(i.logger, "failed to append metadata", "metadata_append_failed",
			logging.String(logging.FieldPath, target),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the file is writable and the figure is valid"),
			logging.String(logging.FieldImpact, "chart saved without reproduction metadata"),
		)
		event.Outcome = OutcomeFailed
		event.Err = err
		i.notify(ctx, event)
		return result, nil
	}

	logging.Success(ctx, i.logger, "metadata saved",
		logging.String(logging.FieldPath, target),
		logging.String(logging.FieldSaveVersion, meta[codec.KeySaveVersion]),
	)
	event.Outcome = OutcomeEmbedded
	event.Metadata = meta
	event.FrameBytes = frameBytes
	i.notify(ctx, event)
	return result, nil
}

func (i *Interceptor) embed(ctx context.Context, fig *chart.Figure, target string) (meta map[string]string, frameBytes int, err error) {
	defer func() {
		if r := recover(); r != nil {
			meta, frameBytes, err = nil, 0, fmt.Errorf("panic while appending metadata: %v", r)
		}
	}()

	rec := codec.New(fig, i.collect(ctx))
	block, err := codec.Encode(rec)
	if err != nil {
		return nil, 0, err
	}
	opts := frame.Options{Trailer: i.trailer}
	if err := frame.Append(target, block, opts); err != nil {
		return nil, 0, err
	}
	return rec.Metadata(), len(frame.Build(block, opts)), nil
}

func (i *Interceptor) collect(ctx context.Context) (rec provenance.Record) {
	if i.collector == nil {
		return provenance.Record{}
	}
	defer func() {
		if r := recover(); r != nil {
			logging.WarnWithContext(i.logger, "failed to get provenance", "provenance_failed",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldImpact, "metadata saved without provenance"),
			)
			rec = provenance.Record{}
		}
	}()
	rec = i.collector.Collect(ctx, i.includeDiff)
	if rec == nil {
		rec = provenance.Record{}
	}
	return rec
}

func (i *Interceptor) notify(ctx context.Context, event SaveEvent) {
	for _, o := range i.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.WarnWithContext(i.logger, "save observer failed", "observer_failed",
						logging.String("panic", fmt.Sprint(r)),
						logging.String(logging.FieldPath, event.Path),
					)
				}
			}()
			o.FigureSaved(ctx, event)
		}()
	}
}

func (i *Interceptor) supportedList() string {
	exts := make([]string, 0, len(i.extensions))
	for ext := range i.extensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return strings.Join(exts, ", ")
}

func pathOf(result chart.SaveResult, destination string) string {
	if result.Path != "" {
		return result.Path
	}
	return destination
}
