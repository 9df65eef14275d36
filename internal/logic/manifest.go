package logic

// ManifestVersion of the catalog manifest format.
const ManifestVersion = 1

// ManifestEntry lists one compiled definition.
type ManifestEntry struct {
	ID            string `json:"id"`
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Hint          string `json:"hint"`
	DefinitionKey string `json:"definitionKey"`
}

// Manifest indexes a compiled catalog.
type Manifest struct {
	Version           int             `json:"version"`
	DefaultExerciseID string          `json:"defaultExerciseId"`
	Exercises         []ManifestEntry `json:"exercises"`
}

// NewManifestEntry builds an entry for a definition id.
func NewManifestEntry(id, name, hint string) ManifestEntry {
	return ManifestEntry{
		ID:            id,
		Slug:          Slug(id),
		Name:          name,
		Hint:          hint,
		DefinitionKey: id,
	}
}

// BuildManifest assembles the manifest. The default exercise is the first
// entry, so callers pass entries in sorted input order.
func BuildManifest(entries []ManifestEntry) Manifest {
	m := Manifest{Version: ManifestVersion, Exercises: []ManifestEntry{}}
	if len(entries) > 0 {
		m.DefaultExerciseID = entries[0].ID
		m.Exercises = append(m.Exercises, entries...)
	}
	return m
}
