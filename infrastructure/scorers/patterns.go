package scorers

// Pattern families used by the scorers, kept as data so signal tuning
// never requires touching scoring logic. All patterns are lowercase;
// matching is case-folded.

// domainCategory associates URL/domain patterns with an authority
// boost. Categories are ordered by precedence; only the first matching
// category's boost applies.
type domainCategory struct {
	// name labels the category in reasoning output.
	name string
	// boost is added to the authority score on a match.
	boost float64
	// patterns are matched as substrings of the lowercase URL+domain.
	patterns []string
}

// domainCategoryTable orders categories academic > government >
// nonprofit. The nonprofit ".org" pattern is deliberately last so
// specific domains win over the generic TLD.
var domainCategoryTable = []domainCategory{
	{
		name:  "academic",
		boost: 0.15,
		patterns: []string{
			".edu", ".ac.", "arxiv.org", "pubmed", "nature.com",
			"sciencedirect.com", "jstor.org", "springer.com",
			"ieee.org", "acm.org", "scholar.google",
		},
	},
	{
		name:  "government",
		boost: 0.12,
		patterns: []string{
			".gov", ".mil", "europa.eu", "who.int", "un.org", "oecd.org",
		},
	},
	{
		name:     "nonprofit",
		boost:    0.08,
		patterns: []string{".org"},
	},
}

// socialMediaPatterns mark low-accountability hosting platforms; a
// match applies a flat authority penalty instead of a boost.
var socialMediaPatterns = []string{
	"twitter.com", "x.com", "facebook.com", "reddit.com",
	"tiktok.com", "instagram.com", "medium.com", "substack.com",
	"linkedin.com", "pinterest.com",
}

// titleAuthorityTerms signal academic or official publications.
var titleAuthorityTerms = []string{
	"study", "journal", "official", "report", "analysis",
	"peer-reviewed", "proceedings", "systematic review", "white paper",
}

// titleSensationalTerms signal clickbait or opinion framing.
var titleSensationalTerms = []string{
	"shocking", "unbelievable", "exposed", "you won't believe",
	"miracle", "secret", "outrageous", "must see", "goes viral",
}

// credentialTerms indicate author qualifications in metadata.
var credentialTerms = []string{"phd", "ph.d", "md", "m.d", "prof", "professor", "dr"}

// institutionTerms indicate an institutional affiliation in metadata.
var institutionTerms = []string{
	"university", "institute", "laboratory", "college", "academy", "observatory",
}

// reputablePublishers is the publisher allowlist for the metadata
// publisher signal.
var reputablePublishers = []string{
	"nature", "elsevier", "springer", "oxford university press",
	"cambridge university press", "ieee", "acm", "wiley",
	"reuters", "associated press", "mit press",
}

// Content-type families for recency classification. The family with
// the most hits wins; ties fall back to reference.

var newsPatterns = []string{
	"breaking", "announced", "today", "yesterday", "this week",
	"reported", "press release", "just in", "developing story",
}

var academicPatterns = []string{
	"study", "research", "hypothesis", "peer-reviewed", "journal",
	"findings", "abstract", "methodology", "et al", "experiment",
}

var referencePatterns = []string{
	"definition", "overview", "guide", "documentation", "encyclopedia",
	"refers to", "is defined as", "manual", "glossary", "specification",
}

var historicalPatterns = []string{
	"century", "ancient", "founded", "historical", "dynasty",
	"era", "archive", "heritage", "medieval", "revolution",
}

// timelessPatterns mark content whose validity does not decay, such as
// mathematical and physical facts.
var timelessPatterns = []string{
	"theorem", "mathematical", "constant", "speed of light",
	"boiling point", "anatomy", "chemical formula", "periodic table",
	"grammar", "axiom", "geometry",
}

// factualPatterns mark verifiable, citeable language.
var factualPatterns = []string{
	"according to", "measured", "data", "percent", "statistics",
	"evidence", "observed", "recorded", "documented", "survey",
}

// opinionPatterns mark subjective language.
var opinionPatterns = []string{
	"i think", "i believe", "in my opinion", "arguably", "probably",
	"seems to", "feels like", "i suspect", "personally",
}

// freshnessPatterns mark content whose value depends on being current.
var freshnessPatterns = []string{
	"as of", "currently", "latest", "right now", "up to date",
	"price", "version", "release", "newest",
}

// Content quality families.

// vaguenessTerms lower the specificity component.
var vaguenessTerms = []string{
	"some", "many", "often", "things", "stuff", "somewhat", "various",
	"several", "a lot", "kind of", "sort of", "generally", "usually",
	"sometimes", "mostly",
}

// specificityCues raise the specificity component alongside numeric
// matches.
var specificityCues = []string{
	"specifically", "precisely", "exactly", "in particular", "namely",
	"january", "february", "march", "april", "june", "july", "august",
	"september", "october", "november", "december",
}

// fillerTerms dilute information density.
var fillerTerms = []string{
	"very", "really", "just", "quite", "basically", "actually",
	"literally", "totally", "simply", "rather", "pretty much",
}

// transitionTerms signal discourse structure for the coherence
// component.
var transitionTerms = []string{
	"however", "therefore", "moreover", "furthermore", "consequently",
	"additionally", "in addition", "as a result", "for example",
	"in contrast", "meanwhile", "similarly", "nevertheless",
}

// pastTenseMarkers and presentTenseMarkers drive the crude tense
// consistency check. Words ending in "ed" also count as past.
var pastTenseMarkers = []string{"was", "were", "had", "did", "been"}

var presentTenseMarkers = []string{"is", "are", "has", "have", "does", "do", "am"}

// syndicationPatterns mark republished wire content; a corroborator
// carrying them is not independent of the original.
var syndicationPatterns = []string{
	"(reuters)", "(ap)", "associated press", "originally published",
	"reprinted", "wire service", "syndicated", "(afp)",
}

// Relevance tables.

// topicCategoryTable maps topic labels to the text patterns that
// indicate them.
var topicCategoryTable = map[string][]string{
	"technology": {
		"software", "algorithm", "computer", "internet", "digital",
		"programming", "hardware", "network", "artificial intelligence",
	},
	"science": {
		"research", "experiment", "hypothesis", "laboratory", "physics",
		"chemistry", "biology", "scientific", "astronomy",
	},
	"health": {
		"medical", "patient", "treatment", "clinical", "disease",
		"therapy", "diagnosis", "healthcare", "vaccine",
	},
	"finance": {
		"market", "investment", "revenue", "financial", "stock",
		"banking", "economic", "fiscal", "portfolio",
	},
	"politics": {
		"government", "policy", "election", "legislation", "parliament",
		"senate", "political", "diplomatic", "referendum",
	},
	"education": {
		"university", "curriculum", "students", "academic", "teaching",
		"school", "degree", "faculty", "scholarship",
	},
	"sports": {
		"championship", "tournament", "athlete", "league", "coach",
		"season", "olympic", "stadium",
	},
}

// personaFieldTable maps persona field names to the text patterns
// that indicate claims about them.
var personaFieldTable = map[string][]string{
	"occupation": {
		"works as", "employed", "career", "position", "serves as",
		"profession", "role at", "job title",
	},
	"education": {
		"graduated", "degree", "studied", "phd", "university",
		"alumnus", "alumna", "diploma", "attended",
	},
	"location": {
		"based in", "lives in", "located", "resident", "headquartered",
		"native of", "moved to", "born in",
	},
	"achievements": {
		"awarded", "won", "published", "founded", "recognized",
		"prize", "honored", "pioneered", "patented",
	},
	"affiliations": {
		"member of", "affiliated", "board of", "association",
		"society", "fellow of", "belongs to", "chapter",
	},
}

// contextCategory pairs a detectable usage context with its fixed
// relevance weight.
type contextCategory struct {
	// name labels the context in results.
	name string
	// weight is the relevance contribution when the context is
	// detected.
	weight float64
	// patterns indicate the context in evidence text.
	patterns []string
}

// contextCategoryTable orders contexts by descending weight so the
// strongest detected context is found first.
var contextCategoryTable = []contextCategory{
	{
		name:   "professional",
		weight: 0.9,
		patterns: []string{
			"work", "career", "company", "business", "professional",
			"industry", "employer", "office",
		},
	},
	{
		name:   "educational",
		weight: 0.85,
		patterns: []string{
			"education", "academic", "university", "learning",
			"school", "research", "thesis",
		},
	},
	{
		name:   "personal",
		weight: 0.6,
		patterns: []string{
			"family", "hobby", "personal", "home", "lifestyle", "travel",
		},
	},
	{
		name:   "social",
		weight: 0.4,
		patterns: []string{
			"social media", "followers", "viral", "trending",
			"influencer", "hashtag",
		},
	},
}
