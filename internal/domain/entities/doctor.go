package entities

import (
	"encoding/json"
	"fmt"
	"math"
)

// DoctorRecord is one row of the doctor directory. PriceMinCents <= PriceMaxCents.
type DoctorRecord struct {
	ID            string  `json:"id"`
	FullName      string  `json:"fullName"`
	Specialty     string  `json:"specialty"`
	City          string  `json:"city"`
	PriceMinCents int64   `json:"priceMinCents"`
	PriceMaxCents int64   `json:"priceMaxCents"`
	Verified      bool    `json:"verified"`
	RatingAvg     float64 `json:"ratingAvg"`
	RatingCount   int     `json:"ratingCount"`
}

// SortRating is the rating used for ordering. Unrated doctors sort as 0.
func (d DoctorRecord) SortRating() float64 {
	if d.RatingCount <= 0 {
		return 0
	}
	return d.RatingAvg
}

// DoctorProfile is the single doctor view served by /api/doctor/{id}
type DoctorProfile struct {
	DoctorRecord
	Bio string `json:"bio"`
}

// UnmarshalJSON normalizes the backend's "speciality" spelling to Specialty.
func (p *DoctorProfile) UnmarshalJSON(data []byte) error {
	var raw struct {
		DoctorRecord
		Bio        string `json:"bio"`
		Speciality string `json:"speciality"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.DoctorRecord = raw.DoctorRecord
	p.Bio = raw.Bio
	if p.Specialty == "" {
		p.Specialty = raw.Speciality
	}
	return nil
}

// FormatPriceRON renders cents as whole lei, e.g. 15000 -> "150 RON".
func FormatPriceRON(cents int64) string {
	return fmt.Sprintf("%.0f RON", math.Round(float64(cents)/100))
}
