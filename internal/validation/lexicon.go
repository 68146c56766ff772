package validation

// Heuristic lexicons backing the bias and credibility sub-checks. These
// are policy defaults, not guaranteed semantics; tune per deployment.

var politicalLeftTerms = []string{
	"progressive", "left-wing", "socialist", "liberal agenda",
	"social justice", "welfare state",
}

var politicalRightTerms = []string{
	"conservative", "right-wing", "nationalist", "traditional values",
	"free market", "deregulation",
}

var sensationalistTerms = []string{
	"shocking", "unbelievable", "you won't believe", "destroyed",
	"slams", "explosive", "bombshell", "outrageous", "stunning",
	"jaw-dropping", "mind-blowing",
}

var emotionalTerms = []string{
	"terrifying", "horrific", "devastating", "heartbreaking",
	"infuriating", "disgusting", "amazing", "incredible", "tragic",
	"alarming",
}

var contrastiveConnectives = []string{
	"however", "although", "on the other hand", "conversely",
	"nevertheless", "nonetheless", "in contrast", "despite",
}

var professionalVocabulary = []string{
	"analysis", "methodology", "research", "study", "evidence",
	"data", "findings", "conclusion", "hypothesis", "evaluation",
	"assessment", "framework", "implementation", "efficiency",
}

var expertiseIndicators = []string{
	"professor", "phd", "ph.d", "researcher", "scientist", "dr.",
	"expert", "analyst", "laureate", "fellow",
}

var factReferenceIndicators = []string{
	"according to", "study", "report", "survey", "peer-reviewed",
	"published in", "data from", "statistics",
}

var negationTerms = []string{
	"not", "no", "never", "false", "untrue", "incorrect", "denies",
	"debunked", "refuted",
}

// domainAuthority maps known hosts to an authority prior; unknown hosts
// fall back to suffix rules, then to neutral.
var domainAuthority = map[string]float64{
	"wikipedia.org":     0.85,
	"nature.com":        0.95,
	"sciencedirect.com": 0.9,
	"arxiv.org":         0.85,
	"ieee.org":          0.9,
	"acm.org":           0.9,
	"reuters.com":       0.85,
	"apnews.com":        0.85,
	"bbc.com":           0.8,
	"github.com":        0.75,
	"stackoverflow.com": 0.7,
	"medium.com":        0.5,
	"reddit.com":        0.4,
	"quora.com":         0.4,
}
