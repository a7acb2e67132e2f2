package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/averen/credence/internal/domain"
	"github.com/averen/credence/internal/ports"
)

// MockExtractor implements the Extractor port with deterministic,
// scriptable responses for testing retry orchestration, batch flows,
// and the CLI without a generative backend.
// Personas can be scripted with per-attempt response sequences or
// injected failures; unscripted personas receive a synthesized response
// that cites real evidence and honors the request's constraints, so the
// mock works out of the box and naturally improves as retries tighten
// constraints.
type MockExtractor struct {
	mu sync.Mutex

	// model is the identifier reported on responses that do not set
	// their own.
	model string
	// scripts maps persona IDs to response sequences consumed call by
	// call; the final entry repeats once the sequence is exhausted.
	scripts map[string][]domain.ExtractionResponse
	// served counts how many scripted calls each persona consumed.
	served map[string]int
	// failures maps persona IDs to injected errors.
	failures map[string]error
	// requests records every request in arrival order.
	requests []domain.ExtractionRequest
}

// NewMockExtractor creates a MockExtractor reporting the given model
// identifier. The mock is safe for concurrent use.
func NewMockExtractor(model string) *MockExtractor {
	return &MockExtractor{
		model:    model,
		scripts:  make(map[string][]domain.ExtractionResponse),
		served:   make(map[string]int),
		failures: make(map[string]error),
	}
}

// ScriptResponses queues responses for a persona. Successive calls
// consume the sequence in order; once exhausted, the last response
// repeats. Scripting a persona replaces its previous script and clears
// any injected failure. Queue a weak response followed by a strong one
// to exercise improvement across retry attempts.
func (m *MockExtractor) ScriptResponses(personaID string, responses ...domain.ExtractionResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[personaID] = responses
	m.served[personaID] = 0
	delete(m.failures, personaID)
}

// FailWith makes every extraction for the persona return err until the
// persona is re-scripted or the mock is reset.
func (m *MockExtractor) FailWith(personaID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[personaID] = err
}

// Extract returns the persona's next scripted response, its injected
// failure, or a synthesized response when nothing was scripted.
func (m *MockExtractor) Extract(ctx context.Context, req domain.ExtractionRequest) (domain.ExtractionResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExtractionResponse{}, err
	}
	if req.PersonaID == "" {
		return domain.ExtractionResponse{}, fmt.Errorf("extraction request missing persona ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if err, ok := m.failures[req.PersonaID]; ok {
		return domain.ExtractionResponse{}, err
	}

	if script := m.scripts[req.PersonaID]; len(script) > 0 {
		idx := m.served[req.PersonaID]
		if idx >= len(script) {
			idx = len(script) - 1
		}
		m.served[req.PersonaID]++

		response := script[idx]
		if response.ModelID == "" {
			response.ModelID = m.model
		}
		return response, nil
	}

	return m.synthesize(req), nil
}

// synthesize builds a response whose single claim cites the leading
// evidence units with inline markers and clears the request's
// constraint floors. Citation confidence tracks MinCitationConfidence
// so tightened retry requests stay satisfiable.
func (m *MockExtractor) synthesize(req domain.ExtractionRequest) domain.ExtractionResponse {
	if len(req.Evidence) == 0 {
		return domain.ExtractionResponse{ModelID: m.model}
	}

	citeCount := req.Constraints.MinCitationsPerSentence
	if citeCount < 1 {
		citeCount = 1
	}
	if citeCount > len(req.Evidence) {
		citeCount = len(req.Evidence)
	}

	confidence := req.Constraints.MinCitationConfidence + 0.1
	if confidence < 0.8 {
		confidence = 0.8
	}
	confidence = domain.Clamp01(confidence)

	ids := make([]string, 0, citeCount)
	var markers strings.Builder
	for i := 0; i < citeCount; i++ {
		ids = append(ids, req.Evidence[i].ID)
		markers.WriteString("[" + req.Evidence[i].ID + "]")
	}

	claim := domain.ClaimField{
		Name:       "summary",
		Text:       fmt.Sprintf("The cited evidence describes the subject directly %s.", markers.String()),
		Confidence: confidence,
		Citations: []domain.Citation{{
			SentenceIndex:   0,
			EvidenceUnitIDs: ids,
			Confidence:      confidence,
			Support:         domain.SupportDirect,
		}},
	}
	return domain.ExtractionResponse{
		Claims:  []domain.ClaimField{claim},
		ModelID: m.model,
		Notes:   []string{fmt.Sprintf("synthesized on attempt %d", req.Attempt)},
	}
}

// CallCount returns how many extraction calls were served, including
// injected failures.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// AttemptsFor returns how many calls were served for one persona.
func (m *MockExtractor) AttemptsFor(personaID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, req := range m.requests {
		if req.PersonaID == personaID {
			count++
		}
	}
	return count
}

// Requests returns a copy of every recorded request in arrival order.
func (m *MockExtractor) Requests() []domain.ExtractionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ExtractionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, reporting false when no
// call was made.
func (m *MockExtractor) LastRequest() (domain.ExtractionRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return domain.ExtractionRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// Reset clears scripts, failures, and recorded calls, keeping the
// model identifier.
func (m *MockExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = make(map[string][]domain.ExtractionResponse)
	m.served = make(map[string]int)
	m.failures = make(map[string]error)
	m.requests = nil
}

// SetModel updates the reported model identifier.
func (m *MockExtractor) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}

// Verify interface compliance at compile time.
var _ ports.Extractor = (*MockExtractor)(nil)
