package domain

// VariantRef is either a concrete Variant or the implicit base-product variant
// used when a product is sold without variants.
type VariantRef struct {
	variant *Variant
}

// SomeVariant wraps a concrete variant.
func SomeVariant(v Variant) VariantRef {
	return VariantRef{variant: &v}
}

// NoVariant is the implicit null variant.
func NoVariant() VariantRef {
	return VariantRef{}
}

// Get returns the variant and true, or the zero Variant and false.
func (r VariantRef) Get() (Variant, bool) {
	if r.variant == nil {
		return Variant{}, false
	}
	return *r.variant, true
}

// IsNone reports whether this is the implicit null variant.
func (r VariantRef) IsNone() bool {
	return r.variant == nil
}

// ID returns the variant id, or nil for the null variant.
func (r VariantRef) ID() *string {
	if r.variant == nil {
		return nil
	}
	id := r.variant.ID
	return &id
}

// THC returns the variant-level THC percent. Absent for the null variant.
func (r VariantRef) THC() *float64 {
	if r.variant == nil {
		return nil
	}
	return r.variant.THCPercent
}

// CBD returns the variant-level CBD percent. Absent for the null variant.
func (r VariantRef) CBD() *float64 {
	if r.variant == nil {
		return nil
	}
	return r.variant.CBDPercent
}
