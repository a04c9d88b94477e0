package report

// SARIF 2.1.0 structures, limited to the subset gitleaks emits.

type (
	// Document is the root of a SARIF report
	Document struct {
		Schema  string `json:"$schema,omitempty"`
		Version string `json:"version"`
		Runs    []Run  `json:"runs"`
	}

	// Run is a single run of an analysis tool
	Run struct {
		Tool    Tool     `json:"tool"`
		Results []Result `json:"results"`
	}

	// Tool describes the analysis tool that produced the run
	Tool struct {
		Driver Driver `json:"driver"`
	}

	// Driver is the analysis tool itself
	Driver struct {
		Name           string `json:"name"`
		Version        string `json:"version,omitempty"`
		InformationURI string `json:"informationUri,omitempty"`
	}

	// Result is a single diagnostic from the run
	Result struct {
		RuleID              string               `json:"ruleId"`
		Message             Message              `json:"message"`
		Locations           []Location           `json:"locations"`
		PartialFingerprints *PartialFingerprints `json:"partialFingerprints,omitempty"`
		Level               string               `json:"level,omitempty"`
	}

	// Message carries the result text
	Message struct {
		Text string `json:"text"`
	}

	// Location points at where the result was found
	Location struct {
		PhysicalLocation PhysicalLocation `json:"physicalLocation"`
	}

	// PhysicalLocation is a file plus region
	PhysicalLocation struct {
		ArtifactLocation ArtifactLocation `json:"artifactLocation"`
		Region           Region           `json:"region"`
	}

	// ArtifactLocation identifies the file
	ArtifactLocation struct {
		URI string `json:"uri"`
	}

	// Region is the position within the file
	Region struct {
		StartLine   int              `json:"startLine"`
		StartColumn int              `json:"startColumn,omitempty"`
		EndLine     int              `json:"endLine,omitempty"`
		EndColumn   int              `json:"endColumn,omitempty"`
		Snippet     *ArtifactContent `json:"snippet,omitempty"`
	}

	// ArtifactContent holds a matched snippet
	ArtifactContent struct {
		Text string `json:"text"`
	}

	// PartialFingerprints is where gitleaks stashes commit metadata
	PartialFingerprints struct {
		CommitSHA string `json:"commitSha,omitempty"`
		Author    string `json:"author,omitempty"`
		Email     string `json:"email,omitempty"`
		Date      string `json:"date,omitempty"`
	}
)
