package scorers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/averen/credence/internal/domain"
)

// AuthorityScorer scores how much trust a source's provenance earns.
// The source tier sets the base weight; domain category, title
// language, and metadata signals adjust it. The scorer is
// deterministic and safe for concurrent use.
type AuthorityScorer struct {
	// name is the unique identifier for this scorer instance.
	name string
	// mu guards config for live updates.
	mu sync.RWMutex
	// config contains the validated configuration parameters.
	config AuthorityConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// AuthorityConfig defines the configuration parameters for the
// AuthorityScorer. All fields are validated during creation and
// updates.
type AuthorityConfig struct {
	// TierWeights maps each source tier to its base authority weight.
	// All four tiers must be present with weights in [0, 1].
	TierWeights map[domain.SourceTier]float64 `yaml:"tier_weights" json:"tier_weights" validate:"required"`

	// SocialMediaPenalty is subtracted when the source domain is a
	// social platform.
	SocialMediaPenalty float64 `yaml:"social_media_penalty" json:"social_media_penalty" validate:"min=0,max=1"`

	// TitleBoost is added when the title carries academic or official
	// terms.
	TitleBoost float64 `yaml:"title_boost" json:"title_boost" validate:"min=0,max=0.5"`

	// TitlePenalty is subtracted when the title carries sensational
	// terms.
	TitlePenalty float64 `yaml:"title_penalty" json:"title_penalty" validate:"min=0,max=0.5"`

	// CredentialBoost is added for author credentials in metadata.
	CredentialBoost float64 `yaml:"credential_boost" json:"credential_boost" validate:"min=0,max=0.5"`

	// AffiliationBoost is added for an institutional affiliation.
	AffiliationBoost float64 `yaml:"affiliation_boost" json:"affiliation_boost" validate:"min=0,max=0.5"`

	// PublisherBoost is added for a recognized reputable publisher.
	PublisherBoost float64 `yaml:"publisher_boost" json:"publisher_boost" validate:"min=0,max=0.5"`

	// PeerReviewBoost is added when metadata marks the work as peer
	// reviewed.
	PeerReviewBoost float64 `yaml:"peer_review_boost" json:"peer_review_boost" validate:"min=0,max=0.5"`

	// IdentifierBoost is added when a DOI or ISBN is present.
	IdentifierBoost float64 `yaml:"identifier_boost" json:"identifier_boost" validate:"min=0,max=0.5"`
}

// AuthorityOverrides carries optional replacements for individual
// AuthorityConfig fields. Nil fields keep the current value.
type AuthorityOverrides struct {
	TierWeights        map[domain.SourceTier]float64 `yaml:"tier_weights" json:"tier_weights"`
	SocialMediaPenalty *float64                      `yaml:"social_media_penalty" json:"social_media_penalty"`
	TitleBoost         *float64                      `yaml:"title_boost" json:"title_boost"`
	TitlePenalty       *float64                      `yaml:"title_penalty" json:"title_penalty"`
	CredentialBoost    *float64                      `yaml:"credential_boost" json:"credential_boost"`
	AffiliationBoost   *float64                      `yaml:"affiliation_boost" json:"affiliation_boost"`
	PublisherBoost     *float64                      `yaml:"publisher_boost" json:"publisher_boost"`
	PeerReviewBoost    *float64                      `yaml:"peer_review_boost" json:"peer_review_boost"`
	IdentifierBoost    *float64                      `yaml:"identifier_boost" json:"identifier_boost"`
}

// WithOverrides returns a copy of the config with non-nil override
// fields applied. Merging is explicit and field-by-field.
func (c AuthorityConfig) WithOverrides(o AuthorityOverrides) AuthorityConfig {
	merged := c
	merged.TierWeights = copyTierWeights(c.TierWeights)
	if o.TierWeights != nil {
		merged.TierWeights = copyTierWeights(o.TierWeights)
	}
	if o.SocialMediaPenalty != nil {
		merged.SocialMediaPenalty = *o.SocialMediaPenalty
	}
	if o.TitleBoost != nil {
		merged.TitleBoost = *o.TitleBoost
	}
	if o.TitlePenalty != nil {
		merged.TitlePenalty = *o.TitlePenalty
	}
	if o.CredentialBoost != nil {
		merged.CredentialBoost = *o.CredentialBoost
	}
	if o.AffiliationBoost != nil {
		merged.AffiliationBoost = *o.AffiliationBoost
	}
	if o.PublisherBoost != nil {
		merged.PublisherBoost = *o.PublisherBoost
	}
	if o.PeerReviewBoost != nil {
		merged.PeerReviewBoost = *o.PeerReviewBoost
	}
	if o.IdentifierBoost != nil {
		merged.IdentifierBoost = *o.IdentifierBoost
	}
	return merged
}

// AuthorityResult carries the authority score and the reasoning trail
// explaining every applied adjustment.
type AuthorityResult struct {
	// Score is the final authority score (0.0 to 1.0).
	Score float64 `json:"score"`

	// Reasoning lists the applied signals in evaluation order.
	Reasoning []string `json:"reasoning"`
}

// DefaultAuthorityConfig returns an AuthorityConfig with the standard
// tier weights and signal adjustments.
func DefaultAuthorityConfig() AuthorityConfig {
	return AuthorityConfig{
		TierWeights: map[domain.SourceTier]float64{
			domain.TierCanonical: 1.0,
			domain.TierReputable: 0.85,
			domain.TierCommunity: 0.65,
			domain.TierInformal:  0.4,
		},
		SocialMediaPenalty: 0.15,
		TitleBoost:         0.05,
		TitlePenalty:       0.10,
		CredentialBoost:    0.05,
		AffiliationBoost:   0.05,
		PublisherBoost:     0.05,
		PeerReviewBoost:    0.10,
		IdentifierBoost:    0.08,
	}
}

// NewAuthorityScorer creates an AuthorityScorer with the specified
// configuration. Returns an error if configuration validation fails.
func NewAuthorityScorer(name string, config AuthorityConfig) (*AuthorityScorer, error) {
	if name == "" {
		return nil, ErrEmptyScorerName
	}
	if err := validateAuthorityConfig(config); err != nil {
		return nil, err
	}
	return &AuthorityScorer{
		name:   name,
		config: config,
		tracer: otel.Tracer("authority-scorer"),
	}, nil
}

// validateAuthorityConfig checks tag constraints plus the tier table,
// which validator tags cannot express.
func validateAuthorityConfig(config AuthorityConfig) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	for _, tier := range []domain.SourceTier{
		domain.TierCanonical, domain.TierReputable,
		domain.TierCommunity, domain.TierInformal,
	} {
		w, ok := config.TierWeights[tier]
		if !ok {
			return fmt.Errorf("%w: tier %q has no weight", domain.ErrInvalidConfiguration, tier)
		}
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: tier %q weight %.3f outside [0,1]",
				domain.ErrInvalidConfiguration, tier, w)
		}
	}
	return nil
}

// Name returns the unique identifier for this scorer instance.
func (s *AuthorityScorer) Name() string { return s.name }

// Config returns a copy of the current configuration.
func (s *AuthorityScorer) Config() AuthorityConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.config
	cfg.TierWeights = copyTierWeights(s.config.TierWeights)
	return cfg
}

// UpdateConfig applies overrides to the live configuration. The merged
// config is validated before it replaces the current one; on error the
// current config is untouched.
func (s *AuthorityScorer) UpdateConfig(o AuthorityOverrides) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.config.WithOverrides(o)
	if err := validateAuthorityConfig(merged); err != nil {
		return err
	}
	s.config = merged
	return nil
}

// Score evaluates the authority of a source. The tier sets the base
// weight; domain category, title language, and metadata signals adjust
// it, and the result is clamped to [0, 1] with a complete reasoning
// trail.
func (s *AuthorityScorer) Score(ctx context.Context, source domain.Source) (AuthorityResult, error) {
	_, span := s.tracer.Start(ctx, "AuthorityScorer.Score",
		trace.WithAttributes(
			attribute.String("scorer.id", s.name),
			attribute.String("source.id", source.ID),
			attribute.String("source.tier", source.Tier.String()),
		),
	)
	defer span.End()

	start := time.Now()
	config := s.Config()

	base, ok := config.TierWeights[source.Tier]
	if !ok {
		err := fmt.Errorf("%s: %w: %q", s.name, ErrUnknownTier, source.Tier)
		span.RecordError(err)
		return AuthorityResult{}, err
	}

	score := base
	reasoning := []string{
		fmt.Sprintf("tier %s: base weight %.2f", source.Tier, base),
	}

	if adj, why := s.domainAdjustment(config, source); why != "" {
		score += adj
		reasoning = append(reasoning, why)
	}
	if adj, why := s.titleAdjustment(config, source.Title); why != "" {
		score += adj
		reasoning = append(reasoning, why)
	}
	adjs, whys := s.metadataAdjustments(config, source.Metadata)
	for i, adj := range adjs {
		score += adj
		reasoning = append(reasoning, whys[i])
	}

	score = domain.Clamp01(score)

	span.SetAttributes(
		attribute.Float64("eval.score", score),
		attribute.Int64("eval.latency_ms", time.Since(start).Milliseconds()),
	)

	return AuthorityResult{Score: score, Reasoning: reasoning}, nil
}

// domainAdjustment returns the single domain-category adjustment: the
// social media penalty when the host is a social platform, otherwise
// the highest-precedence matching category boost.
func (s *AuthorityScorer) domainAdjustment(config AuthorityConfig, source domain.Source) (float64, string) {
	host := strings.ToLower(source.Domain + " " + source.URL)
	if host == " " {
		return 0, ""
	}

	for _, pat := range socialMediaPatterns {
		if strings.Contains(host, pat) {
			return -config.SocialMediaPenalty,
				fmt.Sprintf("social media platform (%s): -%.2f", pat, config.SocialMediaPenalty)
		}
	}
	for _, cat := range domainCategoryTable {
		for _, pat := range cat.patterns {
			if strings.Contains(host, pat) {
				return cat.boost,
					fmt.Sprintf("%s domain (%s): +%.2f", cat.name, pat, cat.boost)
			}
		}
	}
	return 0, ""
}

// titleAdjustment returns the title-language adjustment. Sensational
// terms dominate authority terms when both appear.
func (s *AuthorityScorer) titleAdjustment(config AuthorityConfig, title string) (float64, string) {
	if title == "" {
		return 0, ""
	}
	p := profileText(title)
	if p.hasAny(titleSensationalTerms) {
		return -config.TitlePenalty,
			fmt.Sprintf("sensational title language: -%.2f", config.TitlePenalty)
	}
	if p.hasAny(titleAuthorityTerms) {
		return config.TitleBoost,
			fmt.Sprintf("academic or official title language: +%.2f", config.TitleBoost)
	}
	return 0, ""
}

// metadataAdjustments returns every applicable metadata signal. The
// signals are additive; each contributes independently.
func (s *AuthorityScorer) metadataAdjustments(config AuthorityConfig, meta map[string]string) ([]float64, []string) {
	if len(meta) == 0 {
		return nil, nil
	}

	var (
		adjs []float64
		whys []string
	)
	add := func(adj float64, why string) {
		adjs = append(adjs, adj)
		whys = append(whys, why)
	}

	if creds := meta[domain.MetaAuthorCredentials]; creds != "" {
		if profileText(creds).hasAny(credentialTerms) {
			add(config.CredentialBoost,
				fmt.Sprintf("author credentials (%s): +%.2f", creds, config.CredentialBoost))
		}
	}
	if aff := meta[domain.MetaAffiliation]; aff != "" {
		if profileText(aff).hasAny(institutionTerms) {
			add(config.AffiliationBoost,
				fmt.Sprintf("institutional affiliation (%s): +%.2f", aff, config.AffiliationBoost))
		}
	}
	if pub := meta[domain.MetaPublisher]; pub != "" {
		lower := strings.ToLower(pub)
		for _, known := range reputablePublishers {
			if strings.Contains(lower, known) {
				add(config.PublisherBoost,
					fmt.Sprintf("reputable publisher (%s): +%.2f", pub, config.PublisherBoost))
				break
			}
		}
	}
	if meta[domain.MetaPeerReviewed] == "true" {
		add(config.PeerReviewBoost,
			fmt.Sprintf("peer reviewed: +%.2f", config.PeerReviewBoost))
	}
	if meta[domain.MetaDOI] != "" || meta[domain.MetaISBN] != "" {
		add(config.IdentifierBoost,
			fmt.Sprintf("formal identifier present: +%.2f", config.IdentifierBoost))
	}
	return adjs, whys
}

// copyTierWeights deep-copies a tier weight table.
func copyTierWeights(in map[domain.SourceTier]float64) map[domain.SourceTier]float64 {
	out := make(map[domain.SourceTier]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
