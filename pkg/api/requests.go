package api

// maxFieldBytes caps each text field of a request body. Oversized fields are
// rejected with 413 before the pipeline runs.
const maxFieldBytes = 32 * 1024

// SimulateRequest is the body of POST /api/simulate. Pointer fields
// distinguish a missing key from an explicit empty string; empty strings are
// valid input and flow through to the pipeline.
type SimulateRequest struct {
	FactoryDescription *string `json:"factory_description"`
	SituationText      *string `json:"situation_text"`
}

func (r *SimulateRequest) validate() error {
	if err := checkTextField("factory_description", r.FactoryDescription); err != nil {
		return err
	}
	return checkTextField("situation_text", r.SituationText)
}

// OnboardRequest is the body of POST /api/onboard.
type OnboardRequest struct {
	FactoryDescription *string `json:"factory_description"`
}

func (r *OnboardRequest) validate() error {
	return checkTextField("factory_description", r.FactoryDescription)
}

func checkTextField(name string, value *string) error {
	if value == nil {
		return errMissingField(name)
	}
	if len(*value) > maxFieldBytes {
		return errFieldTooLarge(name)
	}
	return nil
}
