package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// Stage is one step of the pre-routing pipeline. It either returns the request
// the next stage should see (possibly a rewritten copy) with done == false, or
// writes a response itself and returns done == true to stop the pipeline.
type Stage func(w http.ResponseWriter, r *http.Request) (next *http.Request, done bool)

// NamedStage pairs a stage with the name used in logs.
type NamedStage struct {
	Name  string
	Stage Stage
}

// Pipeline runs its stages strictly in registration order and hands the
// resulting request to the final handler (the router).
type Pipeline struct {
	stages  []NamedStage
	handler http.Handler
}

// NewPipeline builds a pipeline in front of handler.
func NewPipeline(handler http.Handler, stages ...NamedStage) *Pipeline {
	return &Pipeline{stages: stages, handler: handler}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name)
	}
	return names
}

func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, s := range p.stages {
		next, done := s.Stage(w, r)
		if done {
			log.Debug().Str("stage", s.Name).Str("path", r.URL.Path).Msg("Pipeline short-circuited")
			return
		}
		r = next
	}
	p.handler.ServeHTTP(w, r)
}
