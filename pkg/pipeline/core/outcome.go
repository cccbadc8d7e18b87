package core

// ErrorKind names the step at which a record's enrichment failed.
type ErrorKind string

const (
	ErrorKindNone               ErrorKind = ""
	ErrorKindMissingURL         ErrorKind = "missing_url"
	ErrorKindFetch              ErrorKind = "fetch"
	ErrorKindClassifierService  ErrorKind = "classifier_service"
	ErrorKindClassifierResponse ErrorKind = "classifier_response"
)

// Outcome is the enrichment result for one record. It is either merged with a
// Classification or failed with a kind and a message, never both.
type Outcome struct {
	kind           ErrorKind
	message        string
	classification Classification
}

// Merged returns a successful Outcome carrying c.
func Merged(c Classification) Outcome {
	return Outcome{classification: c}
}

// Failed returns a failed Outcome. An empty kind is recorded as a fetch failure
// so a failed Outcome can never read as merged.
func Failed(kind ErrorKind, message string) Outcome {
	if kind == ErrorKindNone {
		kind = ErrorKindFetch
	}
	if message == "" {
		message = string(kind)
	}
	return Outcome{kind: kind, message: message}
}

func (o Outcome) Failed() bool {
	return o.kind != ErrorKindNone
}

func (o Outcome) Kind() ErrorKind {
	return o.kind
}

// Message is the diagnostic for a failed Outcome and "" for a merged one.
func (o Outcome) Message() string {
	return o.message
}

// Classification returns the merged classification. ok is false for a failed
// Outcome, in which case the zero Classification is returned.
func (o Outcome) Classification() (c Classification, ok bool) {
	if o.Failed() {
		return Classification{}, false
	}
	return o.classification, true
}

// EnrichedRecord is a Record plus the Outcome of enriching it.
type EnrichedRecord struct {
	Record
	Outcome Outcome
}
