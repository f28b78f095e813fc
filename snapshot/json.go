package snapshot

import jsoniter "github.com/json-iterator/go"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// wireSnapshot is the on-wire shape: every field except the resolution
// index, which is excluded from the payload and rebuilt by the receiver.
type wireSnapshot struct {
	EntryPointClass string         `json:"entry_point"`
	RuntimeVersion  int            `json:"runtime_version"`
	GameArgs        []string       `json:"game_args"`
	RuntimeArgs     []string       `json:"runtime_args"`
	Client          *Record        `json:"client,omitempty"`
	Libraries       []Record       `json:"libraries"`
	Mods            []Record       `json:"mods"`
	Natives         []NativeRecord `json:"natives"`
	Assets          []Record       `json:"assets"`
}

// MarshalJSON emits the wire form, omitting the resolution index.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	w := wireSnapshot{
		EntryPointClass: s.EntryPointClass,
		RuntimeVersion:  s.RuntimeVersion,
		GameArgs:        s.GameArgs,
		RuntimeArgs:     s.RuntimeArgs,
		Client:          s.Client,
		Libraries:       s.Libraries,
		Mods:            s.Mods,
		Natives:         s.Natives,
		Assets:          s.Assets,
	}
	s.mu.RUnlock()
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form and rebuilds the resolution index
// from scratch, since the index is never part of the payload.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.mu.Lock()
	s.EntryPointClass = w.EntryPointClass
	s.RuntimeVersion = w.RuntimeVersion
	s.GameArgs = w.GameArgs
	s.RuntimeArgs = w.RuntimeArgs
	s.Client = w.Client
	s.Libraries = w.Libraries
	s.Mods = w.Mods
	s.Natives = w.Natives
	s.Assets = w.Assets
	s.mu.Unlock()

	s.BuildResolutionIndex()
	return nil
}
