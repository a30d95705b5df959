package content

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/pathforge/internal/cascade"
	"github.com/abhisek/pathforge/internal/llm"
	"github.com/abhisek/pathforge/internal/logging"
	"github.com/abhisek/pathforge/internal/recovery"
)

// DefaultConcurrency bounds in-flight section generations per request.
const DefaultConcurrency = 2

// Service generates module content.
type Service struct {
	cascade     *cascade.Cascade
	cache       Cache
	log         *zap.Logger
	concurrency int
}

// NewService creates a Service. cache may be nil.
func NewService(c *cascade.Cascade, cache Cache) *Service {
	return &Service{
		cascade:     c,
		cache:       cache,
		log:         c.Logger(),
		concurrency: DefaultConcurrency,
	}
}

// Generate returns all sections of the module in Kinds order. Cached
// sections are reused and only missing kinds are generated. The only
// error returned is the context error; every other failure degrades to
// a raw or templated section.
func (s *Service) Generate(ctx context.Context, req Request) ([]Section, error) {
	level := AdaptLevel(req.Level, req.Prior)
	ctx = llm.WithPurpose(ctx, llm.PurposeContent)

	cached := map[Kind]Section{}
	if s.cache != nil {
		var err error
		cached, err = s.cache.Load(ctx, req.PlanID, req.Module.ID)
		if err != nil {
			s.log.Warn("content cache load failed", zap.String("module", req.Module.ID), zap.Error(err))
			cached = map[Kind]Section{}
		}
	}

	sections := make([]Section, len(Kinds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, kind := range Kinds {
		if sec, ok := cached[kind]; ok {
			sections[i] = sec
			continue
		}
		g.Go(func() error {
			sec, err := s.generateSection(gctx, kind, req, level)
			if err != nil {
				return err
			}
			sections[i] = sec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.cache != nil {
		for i, kind := range Kinds {
			if _, ok := cached[kind]; ok {
				continue
			}
			if err := s.cache.Store(ctx, req.PlanID, req.Module.ID, sections[i]); err != nil {
				s.log.Warn("content cache store failed",
					zap.String("module", req.Module.ID), zap.String("kind", string(kind)), zap.Error(err))
			}
		}
	}
	return sections, nil
}

func (s *Service) generateSection(ctx context.Context, kind Kind, req Request, level string) (Section, error) {
	m := req.Module
	var rawReason error
	out, err := cascade.Resolve(ctx, s.cascade,
		cascade.Prompt{
			System: sectionSystemPrompt,
			User:   buildSectionPrompt(kind, m, req.Style, level, req.Prior),
			JSON:   true,
			Check:  checks[kind],
		},
		func(text string) (Section, error) {
			sec, why := parseSection(kind, text, m.Title)
			rawReason = why
			return sec, nil
		},
		func(error) Section { return Templated(kind, m, req.Style, level) },
	)
	if err != nil {
		return Section{}, err
	}

	sec := out.Value
	sec.Metadata[MetaDifficulty] = level
	if !out.Fallback {
		sec.Metadata[MetaModel] = out.Model
		if sec.RawResponse() {
			fields := []zap.Field{
				zap.String("kind", string(kind)),
				zap.String("model", out.Model),
				zap.String("sample", logging.Sample(sec.Content)),
			}
			var re *recovery.RecoveryError
			if errors.As(rawReason, &re) {
				fields = append(fields, zap.String("stage", re.Stage))
			}
			s.log.Warn("section kept as raw text", append(fields, zap.Error(rawReason))...)
		}
	}
	return sec, nil
}
