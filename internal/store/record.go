package store

// Descriptor field names follow the Home Assistant discovery vocabulary so
// records marshal straight into the devices.json snapshot consumed by the
// admin frontend.

// SensorDescriptor describes one measurement exposed as a sensor entity.
type SensorDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Property is the payload field the sensor reads.
	Property string `json:"property"`
	// Type is the semantic type ("temperature", "battery", "linkquality").
	Type string `json:"type"`
	Unit string `json:"unit,omitempty"`
}

// BinarySensorDescriptor describes an on/off observation (security sensors).
type BinarySensorDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Property    string `json:"property"`
	Type        string `json:"type"`
	ValueOn     any    `json:"value_on"`
	ValueOff    any    `json:"value_off"`
}

// SwitchDescriptor describes a controllable on/off load. UnitCode and Group
// are kept so the command topic can be reconstructed from the descriptor.
type SwitchDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Property    string `json:"property"`
	Type        string `json:"type"`
	ValueOn     string `json:"value_on"`
	ValueOff    string `json:"value_off"`
	UnitCode    string `json:"unitCode,omitempty"`
	Group       bool   `json:"group,omitempty"`
}

// SelectDescriptor and CoverDescriptor are extension points. No protocol
// family currently classifies into them; they exist so stored records and
// discovery publishing already handle the kinds when a rule lands.
type SelectDescriptor struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Property    string   `json:"property"`
	Type        string   `json:"type"`
	Options     []string `json:"options,omitempty"`
}

type CoverDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Property    string `json:"property"`
	Type        string `json:"type"`
}

// DeviceRecord is one physical radio device and everything classified for
// it. Identity (ID) never changes; Name may be overridden by configuration
// or the admin API while OriginalName keeps the derived default so renames
// do not orphan discovery history.
type DeviceRecord struct {
	Manufacturer string   `json:"manufacturer"`
	ViaDevice    string   `json:"via_device"`
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	OriginalName string   `json:"originalName"`

	ID           string `json:"id"`
	Type         string `json:"type"`
	Subtype      int    `json:"subtype"`
	SubTypeValue string `json:"subTypeValue"`

	// Entities is the append-only list of entity ids seen for this device.
	Entities []string `json:"entities"`

	Sensors       map[string]SensorDescriptor       `json:"sensors"`
	BinarySensors map[string]BinarySensorDescriptor `json:"binarySensors"`
	Selects       map[string]SelectDescriptor       `json:"selects"`
	Covers        map[string]CoverDescriptor        `json:"covers"`
	Switches      map[string]SwitchDescriptor       `json:"switches"`
}

// NewDeviceRecord returns an empty record for id with all maps initialised.
func NewDeviceRecord(id string) DeviceRecord {
	return DeviceRecord{
		Manufacturer:  "Rfxcom",
		ViaDevice:     "rfxcom2mqtt_bridge",
		Identifiers:   []string{},
		ID:            id,
		Entities:      []string{},
		Sensors:       map[string]SensorDescriptor{},
		BinarySensors: map[string]BinarySensorDescriptor{},
		Selects:       map[string]SelectDescriptor{},
		Covers:        map[string]CoverDescriptor{},
		Switches:      map[string]SwitchDescriptor{},
	}
}

// AddIdentifier appends an alias if not already present.
func (r *DeviceRecord) AddIdentifier(id string) {
	for _, v := range r.Identifiers {
		if v == id {
			return
		}
	}
	r.Identifiers = append(r.Identifiers, id)
}

// AddEntity appends entityID to the entity list if not already present.
func (r *DeviceRecord) AddEntity(entityID string) {
	for _, v := range r.Entities {
		if v == entityID {
			return
		}
	}
	r.Entities = append(r.Entities, entityID)
}

// AddSensor registers a sensor descriptor. First classification wins; an
// existing descriptor with the same id is never replaced.
func (r *DeviceRecord) AddSensor(s SensorDescriptor) {
	if _, ok := r.Sensors[s.ID]; ok {
		return
	}
	r.Sensors[s.ID] = s
}

// AddBinarySensor registers a binary sensor descriptor, insert-once.
func (r *DeviceRecord) AddBinarySensor(s BinarySensorDescriptor) {
	if _, ok := r.BinarySensors[s.ID]; ok {
		return
	}
	r.BinarySensors[s.ID] = s
}

// AddSwitch registers a switch descriptor, insert-once.
func (r *DeviceRecord) AddSwitch(s SwitchDescriptor) {
	if _, ok := r.Switches[s.ID]; ok {
		return
	}
	r.Switches[s.ID] = s
}

// AddSelect registers a select descriptor, insert-once.
func (r *DeviceRecord) AddSelect(s SelectDescriptor) {
	if _, ok := r.Selects[s.ID]; ok {
		return
	}
	r.Selects[s.ID] = s
}

// AddCover registers a cover descriptor, insert-once.
func (r *DeviceRecord) AddCover(c CoverDescriptor) {
	if _, ok := r.Covers[c.ID]; ok {
		return
	}
	r.Covers[c.ID] = c
}

// Clone returns a deep copy safe to hand outside the store.
func (r DeviceRecord) Clone() DeviceRecord {
	out := r
	out.Identifiers = append([]string(nil), r.Identifiers...)
	out.Entities = append([]string(nil), r.Entities...)
	out.Sensors = make(map[string]SensorDescriptor, len(r.Sensors))
	for k, v := range r.Sensors {
		out.Sensors[k] = v
	}
	out.BinarySensors = make(map[string]BinarySensorDescriptor, len(r.BinarySensors))
	for k, v := range r.BinarySensors {
		out.BinarySensors[k] = v
	}
	out.Selects = make(map[string]SelectDescriptor, len(r.Selects))
	for k, v := range r.Selects {
		s := v
		s.Options = append([]string(nil), v.Options...)
		out.Selects[k] = s
	}
	out.Covers = make(map[string]CoverDescriptor, len(r.Covers))
	for k, v := range r.Covers {
		out.Covers[k] = v
	}
	out.Switches = make(map[string]SwitchDescriptor, len(r.Switches))
	for k, v := range r.Switches {
		out.Switches[k] = v
	}
	return out
}

// merge folds update onto r: populated scalar fields in update win,
// sub-entity maps union with update entries replacing same-id descriptors,
// and maps absent from update are preserved. OriginalName is written once
// and never overwritten.
func (r DeviceRecord) merge(update DeviceRecord) DeviceRecord {
	out := r.Clone()
	if update.Manufacturer != "" {
		out.Manufacturer = update.Manufacturer
	}
	if update.ViaDevice != "" {
		out.ViaDevice = update.ViaDevice
	}
	if update.Name != "" {
		out.Name = update.Name
	}
	if out.OriginalName == "" {
		out.OriginalName = update.OriginalName
	}
	// Type, subtype and label travel together on first sighting.
	if update.Type != "" {
		out.Type = update.Type
		out.Subtype = update.Subtype
		out.SubTypeValue = update.SubTypeValue
	}
	for _, id := range update.Identifiers {
		out.AddIdentifier(id)
	}
	for _, id := range update.Entities {
		out.AddEntity(id)
	}
	for k, v := range update.Sensors {
		out.Sensors[k] = v
	}
	for k, v := range update.BinarySensors {
		out.BinarySensors[k] = v
	}
	for k, v := range update.Selects {
		out.Selects[k] = v
	}
	for k, v := range update.Covers {
		out.Covers[k] = v
	}
	for k, v := range update.Switches {
		out.Switches[k] = v
	}
	return out
}
