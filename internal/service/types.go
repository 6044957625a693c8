// Package service contains the domain types and session-scoped stores of
// the plat-talhao platform.
package service

import (
	"time"

	"github.com/paulmach/orb"
)

// FieldPlot is one GPS-delineated field plot ("talhão").
// Single source of truth: Huma reads the tags for OpenAPI + validation.
//
// Boundary is the outer ring only, (longitude, latitude) pairs, first and
// last point coincident.
type FieldPlot struct {
	ID           string   `json:"id" doc:"Unique plot identifier" example:"talhao-1"`
	Name         string   `json:"name" doc:"Display name" example:"Talhão 01"`
	AreaHectares float64  `json:"areaHectares" doc:"Declared area in hectares" example:"2.75"`
	Boundary     orb.Ring `json:"boundary" doc:"Outer ring as [lon, lat] pairs, closed"`
}

// DisplayName returns the plot name, falling back to its id.
func (p FieldPlot) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Role is the session user's role, resolved by the caller.
type Role string

const (
	RoleMaster  Role = "master"
	RoleCliente Role = "cliente"
	RolePiloto  Role = "piloto"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMaster, RoleCliente, RolePiloto:
		return true
	}
	return false
}

// User is the session user descriptor.
type User struct {
	Name string `json:"name" doc:"Operator name" example:"Piloto Teste"`
	Role Role   `json:"role" enum:"master,cliente,piloto" doc:"Session role"`
}

// CanEdit resolves the editing capability once from the role.
func (u User) CanEdit(readOnly bool) bool {
	return !readOnly && (u.Role == RoleMaster || u.Role == RoleCliente)
}

// WeatherSnapshot is a point-in-time weather reading for a plot centroid.
// Nil fields mean "not available", never zero.
type WeatherSnapshot struct {
	TemperatureC        *float64 `json:"temperatureC,omitempty" doc:"Air temperature (°C)"`
	RelativeHumidityPct *float64 `json:"relativeHumidityPct,omitempty" doc:"Relative humidity (%)"`
	WindSpeedKmh        *int     `json:"windSpeedKmh,omitempty" doc:"Wind speed (km/h, rounded)"`
	WindDirection       string   `json:"windDirection,omitempty" doc:"Wind direction as a 16-point compass label" example:"NNE"`
}

// Clone returns a deep copy sharing no pointers with s.
func (s WeatherSnapshot) Clone() WeatherSnapshot {
	out := WeatherSnapshot{WindDirection: s.WindDirection}
	if s.TemperatureC != nil {
		v := *s.TemperatureC
		out.TemperatureC = &v
	}
	if s.RelativeHumidityPct != nil {
		v := *s.RelativeHumidityPct
		out.RelativeHumidityPct = &v
	}
	if s.WindSpeedKmh != nil {
		v := *s.WindSpeedKmh
		out.WindSpeedKmh = &v
	}
	return out
}

// Empty reports whether no field is available.
func (s WeatherSnapshot) Empty() bool {
	return s.TemperatureC == nil && s.RelativeHumidityPct == nil &&
		s.WindSpeedKmh == nil && s.WindDirection == ""
}

// OperationStatus is the lifecycle status of an operation record.
type OperationStatus string

// StatusPendingValidation is the only status produced at save time.
const StatusPendingValidation OperationStatus = "PENDING_VALIDATION"

// Purpose is what the applied product is for.
type Purpose string

const (
	PurposeHerbicide   Purpose = "herbicide"
	PurposeInsecticide Purpose = "insecticide"
	PurposeFungicide   Purpose = "fungicide"
	PurposeAdjuvant    Purpose = "adjuvant"
	PurposeFertilizer  Purpose = "fertilizer"
	PurposeOther       Purpose = "other"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeHerbicide, PurposeInsecticide, PurposeFungicide,
		PurposeAdjuvant, PurposeFertilizer, PurposeOther:
		return true
	}
	return false
}

// OperationRecord is an assembled application record waiting for validation.
// Build it with operation.Builder; it is never mutated afterwards.
type OperationRecord struct {
	ID                    string          `json:"id" doc:"Generated, time-ordered identifier" example:"op-01923f6e-8a4b-7c1d-9e2f-3a4b5c6d7e8f"`
	Status                OperationStatus `json:"status" enum:"PENDING_VALIDATION" doc:"Record status"`
	ClientName            string          `json:"clientName" doc:"Client name" example:"Acme"`
	PropertyName          string          `json:"propertyName" doc:"Property (farm) name" example:"Farm A"`
	Municipality          string          `json:"municipality,omitempty" doc:"Municipality"`
	Region                string          `json:"region,omitempty" doc:"State / region (UF)" example:"SP"`
	TalhaoID              string          `json:"talhaoId" doc:"Referenced plot id"`
	TalhaoName            string          `json:"talhaoName" doc:"Referenced plot name"`
	DroneID               string          `json:"droneId" doc:"Drone id"`
	DroneName             string          `json:"droneName" doc:"Drone internal name"`
	DroneModel            string          `json:"droneModel" doc:"Drone model"`
	ProductName           string          `json:"productName" doc:"Commercial product name" example:"Herb X"`
	ActiveIngredient      string          `json:"activeIngredient,omitempty" doc:"Active ingredient" example:"Glifosato"`
	ToxicologyClass       string          `json:"toxicologyClass,omitempty" doc:"Toxicology class" example:"Classe II"`
	Purpose               Purpose         `json:"purpose" enum:"herbicide,insecticide,fungicide,adjuvant,fertilizer,other" doc:"Application purpose"`
	DosePerHectare        string          `json:"dosePerHectare" doc:"Dose per hectare" example:"2.5 L/ha"`
	SprayVolumePerHectare string          `json:"sprayVolumePerHectare,omitempty" doc:"Spray volume per hectare" example:"15 L/ha"`
	Notes                 string          `json:"notes,omitempty" doc:"Free-text notes"`
	Weather               WeatherSnapshot `json:"weather" doc:"Weather captured at save time"`
	OperatorName          string          `json:"operatorName" doc:"Operator (pilot) name"`
	CreatedAt             time.Time       `json:"createdAt" doc:"Creation timestamp (ISO-8601, UTC)"`
}

// ApplicationType is the kind of application a drone supports.
type ApplicationType string

const (
	ApplicationLiquid   ApplicationType = "liquid"
	ApplicationGranular ApplicationType = "granular"
	ApplicationBoth     ApplicationType = "both"
)

// Drone is one entry of the session drone catalogue.
type Drone struct {
	ID              string          `json:"id" yaml:"id" doc:"Drone id" example:"drone-1"`
	Name            string          `json:"name" yaml:"name" doc:"Internal name" example:"Drone 01 - T40"`
	Model           string          `json:"model" yaml:"model" doc:"Model" example:"DJI Agras T40"`
	Manufacturer    string          `json:"manufacturer" yaml:"manufacturer" doc:"Manufacturer" example:"DJI"`
	Serial          string          `json:"serial,omitempty" yaml:"serial,omitempty" doc:"Serial number or registration"`
	TankCapacityL   float64         `json:"tankCapacityL,omitempty" yaml:"tankCapacityL,omitempty" doc:"Tank capacity (L)"`
	SwathWidthM     float64         `json:"swathWidthM,omitempty" yaml:"swathWidthM,omitempty" doc:"Swath width (m)"`
	ApplicationType ApplicationType `json:"applicationType" yaml:"applicationType" enum:"liquid,granular,both" doc:"Supported application type"`
}
