package sensor

import (
	"fmt"
	"slices"
)

// Schema names the required fields of one sensor stream and which of them drives the control signal
type Schema struct {
	// Name doubles as the WebSocket route and MQTT topic suffix
	Name    string
	Fields  []string
	Control string
}

// Built-in schemas matching the phone sensor streaming app
var (
	LightSchema = Schema{
		Name:    "lightsensor",
		Fields:  []string{"illuminance"},
		Control: "illuminance",
	}
	AccelerometerSchema = Schema{
		Name:    "accelerometer",
		Fields:  []string{"x", "y", "z"},
		Control: "z",
	}
	GyroscopeSchema = Schema{
		Name:    "gyroscope",
		Fields:  []string{"x", "y", "z"},
		Control: "z",
	}
	MagnetometerSchema = Schema{
		Name:    "magnetometer",
		Fields:  []string{"x", "y", "z"},
		Control: "z",
	}
	OrientationSchema = Schema{
		Name:    "orientation",
		Fields:  []string{"x", "y", "z"},
		Control: "z",
	}
	ProximitySchema = Schema{
		Name:    "proximity",
		Fields:  []string{"distance"},
		Control: "distance",
	}
)

var builtin = []Schema{LightSchema, AccelerometerSchema, GyroscopeSchema, MagnetometerSchema, OrientationSchema, ProximitySchema}

// SchemaByName returns a copy of a built-in schema
func SchemaByName(name string) (Schema, bool) {
	for _, s := range builtin {
		if s.Name == name {
			s.Fields = slices.Clone(s.Fields)
			return s, true
		}
	}
	return Schema{}, false
}

// Names lists the built-in schema names
func Names() []string {
	names := make([]string, len(builtin))
	for i, s := range builtin {
		names[i] = s.Name
	}
	return names
}

// WithControl returns a copy of s driven by a different field
func (s Schema) WithControl(field string) Schema {
	s.Fields = slices.Clone(s.Fields)
	s.Control = field
	return s
}

// Validate reports whether the schema can be decoded
func (s Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema has no name")
	}
	if len(s.Fields) == 0 || len(s.Fields) > MaxAxes {
		return fmt.Errorf("schema %q: need 1..%d fields, got %d", s.Name, MaxAxes, len(s.Fields))
	}
	if !slices.Contains(s.Fields, s.Control) {
		return fmt.Errorf("schema %q: control field %q is not one of %v", s.Name, s.Control, s.Fields)
	}
	return nil
}
