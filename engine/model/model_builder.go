package model

// modelConfig collects the options that select and configure a Renderable variant.
type modelConfig struct {
	track *RootTrack
	links []BoneLink
}

// ModelBuilderOption is a functional option for configuring a Renderable via New.
type ModelBuilderOption func(*modelConfig)

// WithRootTrack is an option builder that animates the object's root, making it a character.
//
// Parameters:
//   - track: the root animation track
//
// Returns:
//   - ModelBuilderOption: a function that applies the track option
func WithRootTrack(track RootTrack) ModelBuilderOption {
	return func(c *modelConfig) {
		c.track = &track
	}
}

// WithBoneLinks is an option builder that attaches meshes to the object's bones, making it a character.
//
// Parameters:
//   - links: the bone link table
//
// Returns:
//   - ModelBuilderOption: a function that applies the bone links option
func WithBoneLinks(links []BoneLink) ModelBuilderOption {
	return func(c *modelConfig) {
		c.links = append(c.links, links...)
	}
}
