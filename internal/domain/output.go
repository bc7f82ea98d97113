package domain

import "strconv"

// Output table column orders.
var (
	HousingColumns = []string{
		"RegionName", "State", "Metro", "FIPS",
		"2021_average", "2020_average", "2019_average",
		"2020_increase", "2021_increase", "2021_2yr_increase",
		"text_2yrs", "text_20", "text_21",
		"med_inc", "pov_rate", "POPESTIMATE2020",
		"opacity", "house_pov_ind",
	}
	RaceColumns     = []string{"fips", "County", "race", "perc_total"}
	MobilityColumns = []string{"date", "countyfips", "gps_retail_and_recreation", "gps_grocery_and_pharmacy", "gps_parks"}
)

// MobilityDateLayout is the date format of the mobility output.
const MobilityDateLayout = "2006-01-02"

// cell renders a nullable float for a tabular output; missing is empty.
func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(v)
}

func intCell(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func boolCell(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Row renders the record in HousingColumns order.
func (m MergedCountyRecord) Row() []string {
	opacity := m.Opacity
	return []string{
		m.RegionName, m.State, m.Metro, string(m.Key),
		cell(m.Avg2021), cell(m.Avg2020), cell(m.Avg2019),
		cell(m.Increase2020), cell(m.Increase2021), cell(m.Increase2Yr),
		m.Text2Yr, m.Text2020, m.Text2021,
		cell(m.MedianIncome), cell(m.PovertyRate), intCell(m.Population2020),
		formatFloat(&opacity), boolCell(m.HousePovertyIndicator),
	}
}

// Row renders the record in RaceColumns order.
func (r RaceRecord) Row() []string {
	pct := r.Percentage
	return []string{string(r.Key), r.CountyName, r.Category.Label(), formatFloat(&pct)}
}

// Row renders the record in MobilityColumns order.
func (m MobilityRecord) Row() []string {
	return []string{
		m.Date.Format(MobilityDateLayout),
		string(m.Key),
		cell(m.RetailRecreation),
		cell(m.GroceryPharmacy),
		cell(m.Parks),
	}
}
