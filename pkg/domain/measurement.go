package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// MeasurementData is the garment-specific dimension set of a Measurement. The
// set of implementations is closed: ShirtMeasurement, PantMeasurement,
// KurtaMeasurement, KotiMeasurement and WaistcoatMeasurement. All dimensions
// are inches.
type MeasurementData interface {
	Garment() GarmentType
	Validate() error
	clone() MeasurementData
}

// ShirtMeasurement holds shirt dimensions.
type ShirtMeasurement struct {
	Length        float64  `json:"length"`
	Chest         float64  `json:"chest"`
	Waist         float64  `json:"waist"`
	Shoulder      float64  `json:"shoulder"`
	SleeveLength  float64  `json:"sleeveLength"`
	SleeveOpening float64  `json:"sleeveOpening"`
	Collar        float64  `json:"collar"`
	ArmHole       float64  `json:"armHole"`
	CuffSize      *float64 `json:"cuffSize,omitempty"`
	FrontChest    *float64 `json:"frontChest,omitempty"`
	BackWidth     *float64 `json:"backWidth,omitempty"`
}

// PantMeasurement holds trouser dimensions.
type PantMeasurement struct {
	Length float64  `json:"length"`
	Waist  float64  `json:"waist"`
	Hip    float64  `json:"hip"`
	Thigh  float64  `json:"thigh"`
	Knee   float64  `json:"knee"`
	Bottom float64  `json:"bottom"`
	Crotch float64  `json:"crotch"`
	Rise   *float64 `json:"rise,omitempty"`
	Inseam *float64 `json:"inseam,omitempty"`
}

// KurtaMeasurement holds kurta dimensions.
type KurtaMeasurement struct {
	Length        float64  `json:"length"`
	Chest         float64  `json:"chest"`
	Waist         float64  `json:"waist"`
	Shoulder      float64  `json:"shoulder"`
	SleeveLength  float64  `json:"sleeveLength"`
	SleeveOpening float64  `json:"sleeveOpening"`
	Collar        float64  `json:"collar"`
	ArmHole       float64  `json:"armHole"`
	Slit          *float64 `json:"slit,omitempty"`
	Daaman        *float64 `json:"daaman,omitempty"`
}

// KotiMeasurement holds koti (sleeveless jacket) dimensions.
type KotiMeasurement struct {
	Length       float64  `json:"length"`
	Chest        float64  `json:"chest"`
	Waist        float64  `json:"waist"`
	Shoulder     float64  `json:"shoulder"`
	ArmHole      float64  `json:"armHole"`
	FrontOpening *float64 `json:"frontOpening,omitempty"`
	BackWidth    *float64 `json:"backWidth,omitempty"`
}

// WaistcoatMeasurement holds waistcoat dimensions.
type WaistcoatMeasurement struct {
	Length      float64  `json:"length"`
	Chest       float64  `json:"chest"`
	Waist       float64  `json:"waist"`
	Shoulder    float64  `json:"shoulder"`
	ArmHole     float64  `json:"armHole"`
	FrontLength *float64 `json:"frontLength,omitempty"`
	BackLength  *float64 `json:"backLength,omitempty"`
}

func (ShirtMeasurement) Garment() GarmentType     { return GarmentShirt }
func (PantMeasurement) Garment() GarmentType      { return GarmentPant }
func (KurtaMeasurement) Garment() GarmentType     { return GarmentKurta }
func (KotiMeasurement) Garment() GarmentType      { return GarmentKoti }
func (WaistcoatMeasurement) Garment() GarmentType { return GarmentWaistcoat }

func (m ShirtMeasurement) Validate() error {
	return checkDimensions(GarmentShirt, []dimension{
		{"length", &m.Length}, {"chest", &m.Chest}, {"waist", &m.Waist}, {"shoulder", &m.Shoulder},
		{"sleeveLength", &m.SleeveLength}, {"sleeveOpening", &m.SleeveOpening}, {"collar", &m.Collar},
		{"armHole", &m.ArmHole}, {"cuffSize", m.CuffSize}, {"frontChest", m.FrontChest}, {"backWidth", m.BackWidth},
	})
}

func (m PantMeasurement) Validate() error {
	return checkDimensions(GarmentPant, []dimension{
		{"length", &m.Length}, {"waist", &m.Waist}, {"hip", &m.Hip}, {"thigh", &m.Thigh},
		{"knee", &m.Knee}, {"bottom", &m.Bottom}, {"crotch", &m.Crotch}, {"rise", m.Rise}, {"inseam", m.Inseam},
	})
}

func (m KurtaMeasurement) Validate() error {
	return checkDimensions(GarmentKurta, []dimension{
		{"length", &m.Length}, {"chest", &m.Chest}, {"waist", &m.Waist}, {"shoulder", &m.Shoulder},
		{"sleeveLength", &m.SleeveLength}, {"sleeveOpening", &m.SleeveOpening}, {"collar", &m.Collar},
		{"armHole", &m.ArmHole}, {"slit", m.Slit}, {"daaman", m.Daaman},
	})
}

func (m KotiMeasurement) Validate() error {
	return checkDimensions(GarmentKoti, []dimension{
		{"length", &m.Length}, {"chest", &m.Chest}, {"waist", &m.Waist}, {"shoulder", &m.Shoulder},
		{"armHole", &m.ArmHole}, {"frontOpening", m.FrontOpening}, {"backWidth", m.BackWidth},
	})
}

func (m WaistcoatMeasurement) Validate() error {
	return checkDimensions(GarmentWaistcoat, []dimension{
		{"length", &m.Length}, {"chest", &m.Chest}, {"waist", &m.Waist}, {"shoulder", &m.Shoulder},
		{"armHole", &m.ArmHole}, {"frontLength", m.FrontLength}, {"backLength", m.BackLength},
	})
}

func (m ShirtMeasurement) clone() MeasurementData {
	m.CuffSize, m.FrontChest, m.BackWidth = copyFloat(m.CuffSize), copyFloat(m.FrontChest), copyFloat(m.BackWidth)
	return m
}

func (m PantMeasurement) clone() MeasurementData {
	m.Rise, m.Inseam = copyFloat(m.Rise), copyFloat(m.Inseam)
	return m
}

func (m KurtaMeasurement) clone() MeasurementData {
	m.Slit, m.Daaman = copyFloat(m.Slit), copyFloat(m.Daaman)
	return m
}

func (m KotiMeasurement) clone() MeasurementData {
	m.FrontOpening, m.BackWidth = copyFloat(m.FrontOpening), copyFloat(m.BackWidth)
	return m
}

func (m WaistcoatMeasurement) clone() MeasurementData {
	m.FrontLength, m.BackLength = copyFloat(m.FrontLength), copyFloat(m.BackLength)
	return m
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// dimension pairs a field name with its value; nil values are unset optionals.
type dimension struct {
	name  string
	value *float64
}

func checkDimensions(garment GarmentType, dims []dimension) error {
	verr := &ValidationError{}
	for _, d := range dims {
		if d.value == nil {
			continue
		}
		v := *d.value
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			verr.Add(string(garment)+"."+d.name, "must be a non-negative number of inches")
		}
	}
	return verr.OrNil()
}

// NewMeasurementData returns a zero-valued variant for the garment type.
func NewMeasurementData(garment GarmentType) (MeasurementData, error) {
	switch garment {
	case GarmentShirt:
		return ShirtMeasurement{}, nil
	case GarmentPant:
		return PantMeasurement{}, nil
	case GarmentKurta:
		return KurtaMeasurement{}, nil
	case GarmentKoti:
		return KotiMeasurement{}, nil
	case GarmentWaistcoat:
		return WaistcoatMeasurement{}, nil
	}
	return nil, fmt.Errorf("unknown garment type %q", garment)
}

// DecodeMeasurementData decodes a JSON dimension object for the given garment.
// Fields belonging to another garment are rejected.
func DecodeMeasurementData(garment GarmentType, raw []byte) (MeasurementData, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var (
		data MeasurementData
		err  error
	)
	switch garment {
	case GarmentShirt:
		data, err = decodeVariant[ShirtMeasurement](dec)
	case GarmentPant:
		data, err = decodeVariant[PantMeasurement](dec)
	case GarmentKurta:
		data, err = decodeVariant[KurtaMeasurement](dec)
	case GarmentKoti:
		data, err = decodeVariant[KotiMeasurement](dec)
	case GarmentWaistcoat:
		data, err = decodeVariant[WaistcoatMeasurement](dec)
	default:
		return nil, fmt.Errorf("unknown garment type %q", garment)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s measurement: %w", garment, err)
	}
	return data, nil
}

func decodeVariant[T MeasurementData](dec *json.Decoder) (MeasurementData, error) {
	var m T
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// deref stores variants by value so equality and type switches see one form.
func deref(data MeasurementData) MeasurementData {
	switch m := data.(type) {
	case *ShirtMeasurement:
		return *m
	case *PantMeasurement:
		return *m
	case *KurtaMeasurement:
		return *m
	case *KotiMeasurement:
		return *m
	case *WaistcoatMeasurement:
		return *m
	}
	return data
}

type measurementAlias Measurement

// MarshalJSON writes the measurement with a "type" discriminator and a "data"
// object, the record shape used by the persisted state.
func (m Measurement) MarshalJSON() ([]byte, error) {
	if m.Data == nil {
		return nil, fmt.Errorf("measurement %s has no data", m.ID)
	}
	type payload struct {
		measurementAlias
		Type GarmentType     `json:"type"`
		Data MeasurementData `json:"data"`
	}
	return json.Marshal(payload{measurementAlias: measurementAlias(m), Type: m.Data.Garment(), Data: deref(m.Data)})
}

// UnmarshalJSON decodes the discriminated record, rejecting data whose shape
// does not match the declared type.
func (m *Measurement) UnmarshalJSON(raw []byte) error {
	type payload struct {
		measurementAlias
		Type GarmentType     `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	var aux payload
	if err := json.Unmarshal(raw, &aux); err != nil {
		return err
	}
	if len(aux.Data) == 0 {
		return fmt.Errorf("measurement %s: missing data", aux.ID)
	}
	data, err := DecodeMeasurementData(aux.Type, aux.Data)
	if err != nil {
		return fmt.Errorf("measurement %s: %w", aux.ID, err)
	}
	*m = Measurement(aux.measurementAlias)
	m.Data = data
	return nil
}
