package component

// Renderable names the mesh and material a renderer should draw for an
// entity. The resources themselves live in the renderer's cache.
type Renderable struct {
	Mesh     string
	Material string
	Hidden   bool
}
