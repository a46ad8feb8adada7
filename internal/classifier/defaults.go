package classifier

import "sync"

var (
	defaultOnce sync.Once
	defaultDict *Dictionary
)

// DefaultDictionary returns the built-in dictionary. It is compiled on first
// use and the same pointer is returned afterwards.
func DefaultDictionary() *Dictionary {
	defaultOnce.Do(func() {
		d, err := NewDictionary(DefaultSpec())
		if err != nil {
			panic("classifier: invalid built-in dictionary: " + err.Error())
		}
		defaultDict = d
	})
	return defaultDict
}

// DefaultSpec returns a fresh copy of the built-in dictionary declaration.
func DefaultSpec() DictionarySpec {
	return DictionarySpec{
		Fallback: FallbackCategory,
		Categories: []CategorySpec{
			{
				ID:   "leadership-executive",
				Name: "Leadership & Executive",
				Core: []string{"leadership", "executive", "senior management", "strategic direction", "head of office"},
				Support: []string{
					"strategic", "vision", "oversight", "board", "governing bodies",
					"high level", "representation", "stakeholders", "accountability",
				},
				ContextPairs: [][]string{{"strategic", "leadership"}, {"senior", "management"}, {"organizational", "change"}},
			},
			{
				ID:   "digital-technology",
				Name: "Digital & Technology",
				Core: []string{
					"software", "developer", "machine learning", "artificial intelligence",
					"cybersecurity", "cloud", "devops", "programming", "data engineering",
					"information technology", "ict", "database", "web development",
				},
				Support: []string{
					"digital", "technology", "systems", "network", "platform", "api",
					"infrastructure", "python", "java", "javascript", "automation",
					"architecture", "servers", "helpdesk", "erp",
				},
				ContextPairs: [][]string{{"data", "pipelines"}, {"digital", "transformation"}, {"information", "security"}, {"user", "support"}},
			},
			{
				ID:   "climate-environment",
				Name: "Climate & Environment",
				Core: []string{
					"climate", "environment", "environmental", "biodiversity", "renewable energy",
					"sustainability", "emissions", "conservation", "ecosystem", "carbon",
				},
				Support: []string{
					"adaptation", "mitigation", "resilience", "green", "forest", "water",
					"ocean", "energy", "pollution", "waste", "natural resources",
				},
				ContextPairs: [][]string{{"climate", "adaptation"}, {"disaster", "risk"}, {"clean", "energy"}, {"natural", "resources"}},
			},
			{
				ID:   "health-medical",
				Name: "Health & Medical",
				Core: []string{
					"health", "medical", "epidemiology", "nursing", "physician", "public health",
					"vaccine", "immunization", "clinical", "hiv", "malaria", "disease",
				},
				Support: []string{
					"hospital", "patient", "nutrition", "surveillance", "pharmaceutical",
					"laboratory", "maternal", "outbreak", "treatment", "care",
				},
				ContextPairs: [][]string{{"disease", "surveillance"}, {"primary", "care"}, {"mental", "health"}},
			},
			{
				ID:   "humanitarian-emergency",
				Name: "Humanitarian & Emergency",
				Core: []string{
					"humanitarian", "emergency", "refugee", "refugees", "displacement",
					"crisis response", "relief", "protection cluster", "resettlement",
				},
				Support: []string{
					"shelter", "camp", "idp", "idps", "asylum", "response", "cluster",
					"preparedness", "displaced", "aid",
				},
				ContextPairs: [][]string{{"emergency", "response"}, {"internally", "displaced"}, {"cash", "assistance"}},
			},
			{
				ID:   "peace-security",
				Name: "Peace & Security",
				Core: []string{
					"peacekeeping", "peacebuilding", "security", "conflict", "disarmament",
					"mediation", "demining", "counter terrorism", "political affairs",
				},
				Support: []string{
					"military", "police", "ceasefire", "stabilization", "violence",
					"prevention", "reconciliation", "safety", "threat",
				},
				ContextPairs: [][]string{{"conflict", "prevention"}, {"security", "sector"}, {"rule", "law"}},
			},
			{
				ID:   "governance-rule-of-law",
				Name: "Governance & Rule of Law",
				Core: []string{
					"governance", "rule of law", "human rights", "justice", "elections",
					"anti corruption", "democracy", "public administration", "parliament",
				},
				Support: []string{
					"institutions", "accountability", "transparency", "civil society",
					"judicial", "legislation", "policy", "reform", "decentralization",
				},
				ContextPairs: [][]string{{"human", "rights"}, {"public", "sector"}, {"institutional", "reform"}},
			},
			{
				ID:   "economic-development",
				Name: "Economic Development",
				Core: []string{
					"economic", "economist", "trade", "investment", "poverty reduction",
					"private sector", "livelihoods", "microfinance", "agriculture", "industrial",
				},
				Support: []string{
					"growth", "markets", "employment", "entrepreneurship", "value chains",
					"food security", "rural", "enterprise", "fiscal", "macroeconomic",
				},
				ContextPairs: [][]string{{"private", "sector"}, {"value", "chain"}, {"food", "security"}, {"sustainable", "development"}},
			},
			{
				ID:   "education-culture",
				Name: "Education & Culture",
				Core: []string{
					"education", "teacher", "curriculum", "learning outcomes", "literacy",
					"schools", "training", "cultural heritage", "scholarship",
				},
				Support: []string{
					"students", "youth", "pedagogy", "capacity building", "e learning",
					"skills development", "culture", "academic", "university",
				},
				ContextPairs: [][]string{{"early", "childhood"}, {"capacity", "building"}, {"vocational", "training"}},
			},
			{
				ID:   "social-inclusion-gender",
				Name: "Social Inclusion & Gender",
				Core: []string{
					"gender", "gender equality", "social protection", "child protection",
					"inclusion", "disability", "gender based violence", "women", "migration",
				},
				Support: []string{
					"equality", "empowerment", "vulnerable", "children", "girls",
					"community", "social", "minorities", "safeguarding",
				},
				ContextPairs: [][]string{{"social", "protection"}, {"gender", "mainstreaming"}, {"women", "empowerment"}},
			},
			{
				ID:   "communication-advocacy",
				Name: "Communication & Advocacy",
				Core: []string{
					"communication", "communications", "advocacy", "media", "public information",
					"journalism", "outreach", "editor", "spokesperson",
				},
				Support: []string{
					"campaigns", "social media", "content", "press", "writing",
					"storytelling", "branding", "events", "website",
				},
				ContextPairs: [][]string{{"media", "relations"}, {"public", "awareness"}, {"content", "creation"}},
			},
			{
				ID:   "finance-budget",
				Name: "Finance & Budget",
				Core: []string{
					"finance", "financial", "budget", "accounting", "accountant", "audit",
					"treasury", "payroll", "ipsas", "financial reporting",
				},
				Support: []string{
					"expenditure", "reconciliation", "invoices", "cost", "funds",
					"resource mobilization", "ledger", "payments", "donor reporting",
				},
				ContextPairs: [][]string{{"budget", "monitoring"}, {"financial", "management"}, {"internal", "controls"}},
			},
			{
				ID:   "human-resources",
				Name: "Human Resources",
				Core: []string{
					"human resources", "recruitment", "talent", "staffing", "hr",
					"compensation", "onboarding", "workforce planning",
				},
				Support: []string{
					"personnel", "benefits", "performance management", "contracts",
					"entitlements", "learning and development", "staff welfare",
				},
				ContextPairs: [][]string{{"talent", "acquisition"}, {"staff", "development"}, {"performance", "appraisal"}},
			},
			{
				ID:   "supply-chain-logistics",
				Name: "Supply Chain & Logistics",
				Core: []string{
					"procurement", "logistics", "supply chain", "warehouse", "fleet",
					"shipping", "inventory", "tender", "sourcing",
				},
				Support: []string{
					"transport", "customs", "suppliers", "vendors", "distribution",
					"contracts management", "purchase orders", "stock", "delivery",
				},
				ContextPairs: [][]string{{"supply", "chain"}, {"vendor", "management"}, {"stock", "management"}},
			},
			{
				ID:   "legal-compliance",
				Name: "Legal & Compliance",
				Core: []string{
					"legal", "lawyer", "counsel", "compliance", "ethics",
					"investigation", "investigations", "jurist", "treaty",
				},
				Support: []string{
					"contracts", "regulations", "litigation", "integrity", "oversight",
					"international law", "privileges", "immunities", "arbitration",
				},
				ContextPairs: [][]string{{"legal", "advice"}, {"due", "diligence"}, {"risk", "compliance"}},
			},
			{
				ID:   "monitoring-evaluation",
				Name: "Monitoring, Evaluation & Research",
				Core: []string{
					"monitoring", "evaluation", "research", "statistics", "statistician",
					"data analysis", "survey", "impact assessment", "analytics",
				},
				Support: []string{
					"indicators", "baseline", "methodology", "data collection", "reporting",
					"results", "evidence", "quantitative", "qualitative",
				},
				ContextPairs: [][]string{{"results", "framework"}, {"data", "collection"}, {"theory", "change"}},
			},
			{
				ID:   "operations-administration",
				Name: "Operations & Administration",
				Core: []string{
					"administration", "administrative", "operations", "office management",
					"facilities", "clerk", "secretary", "coordination",
				},
				Support: []string{
					"filing", "travel", "scheduling", "correspondence", "records",
					"support services", "logistics support", "general services",
				},
				ContextPairs: [][]string{{"office", "management"}, {"administrative", "support"}, {"general", "services"}},
			},
		},
		LeadershipTitles: []string{
			"under secretary general",
			"assistant secretary general",
			"special representative",
			"special envoy",
			"resident coordinator",
			"executive director",
			"deputy director",
			"regional director",
			"country director",
			"country representative",
			"director",
			"head of",
			"chief of",
		},
		StopWords: []string{
			"about", "above", "after", "again", "also", "among", "around", "based",
			"been", "before", "being", "below", "between", "both", "candidate",
			"candidates", "could", "during", "each", "ensure", "experience", "from",
			"have", "having", "including", "into", "just", "knowledge", "like",
			"more", "most", "must", "nations", "only", "other", "over", "please",
			"position", "provide", "required", "requirements", "responsibilities",
			"role", "should", "skills", "such", "than", "that", "their", "them",
			"then", "there", "these", "they", "this", "those", "through", "under",
			"united", "until", "upon", "very", "well", "were", "what", "when",
			"where", "which", "while", "will", "with", "within", "work", "working",
			"would", "years", "your", "ability", "strong", "team", "apply",
			"applicants", "application", "office", "level", "year", "duties",
		},
	}
}
