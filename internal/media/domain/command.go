package domain

// UploadMediaCommand upload raw resource into a video slot
type UploadMediaCommand struct {
	VideoID   string
	MediaType string
	Resource  Resource
}

// UploadMediaOutput the slot that was updated
type UploadMediaOutput struct {
	VideoID   string
	MediaType VideoMediaType
}

// UpdateMediaStatusCommand status reported for one asset; Folder/Filename only for COMPLETED
type UpdateMediaStatusCommand struct {
	Status     MediaStatus
	VideoID    string
	ResourceID string
	Folder     string
	Filename   string
}

// EncodedPath folder + "/" + filename
func (c UpdateMediaStatusCommand) EncodedPath() string {
	return c.Folder + "/" + c.Filename
}
