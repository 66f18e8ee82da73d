package billing

// FuelCategory is the standardized service category a bill line item is
// mapped into. Water, sewer and refuse are tracked for cost reporting but
// carry no energy content.
type FuelCategory string

const (
	CategoryElectricity  FuelCategory = "Electricity"
	CategoryFuelOil      FuelCategory = "Fuel Oil"
	CategoryNaturalGas   FuelCategory = "Natural Gas"
	CategoryDistrictHeat FuelCategory = "District Heat"
	CategoryPropane      FuelCategory = "Propane"
	CategoryWood         FuelCategory = "Wood"
	CategoryCoal         FuelCategory = "Coal"
	CategoryWater        FuelCategory = "Water"
	CategorySewer        FuelCategory = "Sewer"
	CategoryRefuse       FuelCategory = "Refuse"
	CategoryOther        FuelCategory = "Other"
)

// IsValid checks if the category is one of the supported values.
func (c FuelCategory) IsValid() bool {
	switch c {
	case CategoryElectricity, CategoryFuelOil, CategoryNaturalGas,
		CategoryDistrictHeat, CategoryPropane, CategoryWood, CategoryCoal,
		CategoryWater, CategorySewer, CategoryRefuse, CategoryOther:
		return true
	}
	return false
}

// IsEnergy reports whether usage in this category converts to MMBTU.
func (c FuelCategory) IsEnergy() bool {
	switch c {
	case CategoryElectricity, CategoryFuelOil, CategoryNaturalGas,
		CategoryDistrictHeat, CategoryPropane, CategoryWood, CategoryCoal:
		return true
	}
	return false
}
