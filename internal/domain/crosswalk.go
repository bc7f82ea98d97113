package domain

// Crosswalk maps Zillow county region IDs to county keys.
type Crosswalk map[string]CountyKey

// CleanCrosswalk indexes the Zillow county crosswalk by region ID. FIPS values
// are always re-padded since the file is inconsistent about leading zeros.
func CleanCrosswalk(t *Table) (Crosswalk, Report, error) {
	rep := newReport("crosswalk")

	if err := t.Require("CountyRegionID_Zillow", "FIPS"); err != nil {
		return nil, rep, err
	}

	cw := make(Crosswalk, len(t.Rows))
	for _, row := range t.Rows {
		rep.Read++

		regionID := t.Value(row, "CountyRegionID_Zillow")
		fips := t.Value(row, "FIPS")
		key, err := NormalizeFIPS(fips)
		if err != nil || regionID == "" {
			rep.exclude(ReasonMalformedKey, regionID+"|"+fips)
			continue
		}
		if _, dup := cw[regionID]; dup {
			rep.exclude(ReasonDuplicateKey, regionID)
			continue
		}
		cw[regionID] = key
	}

	rep.Kept = len(cw)
	return cw, rep, nil
}
