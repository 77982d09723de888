package validator

// Validator is the validation entry point injected into services and handlers.
// It embeds the business validator so call sites get both struct validation
// and the marketplace rule helpers through one value.
type Validator struct {
	*BusinessValidator
}

// New creates a validator with all marketplace business rules registered
func New() *Validator {
	return &Validator{BusinessValidator: NewBusinessValidator()}
}

// GetBusinessValidator returns the underlying business validator
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.BusinessValidator
}
