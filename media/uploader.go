package media

import (
	"context"
	"fmt"
	"io"
	"log"

	"saffron/models"
	"saffron/utils"
)

// Uploader runs the processor and stores every variant.
type Uploader struct {
	proc    *Processor
	storage Storage
	cdn     CDN
}

func NewUploader(proc *Processor, storage Storage, cdn CDN) *Uploader {
	return &Uploader{proc: proc, storage: storage, cdn: cdn}
}

// Upload stores r under "{folder}/{id}-{variant}.jpg" and returns the URLs.
func (u *Uploader) Upload(ctx context.Context, folder string, r io.Reader, alt string) (models.ImageSet, error) {
	variants, err := u.proc.Process(r)
	if err != nil {
		return models.ImageSet{}, err
	}

	set := models.ImageSet{ID: utils.GetUUID(), Alt: alt}
	for _, v := range u.proc.Variants {
		key := fmt.Sprintf("%s/%s-%s.jpg", folder, set.ID, v.Name)
		p, err := u.storage.Put(ctx, key, variants[v.Name], "image/jpeg")
		if err != nil {
			return models.ImageSet{}, err
		}
		url := u.cdn.URL(p, Hints{Width: v.Width, Quality: u.proc.Quality})
		switch v.Name {
		case "thumb":
			set.Thumb = url
		case "medium":
			set.Medium = url
		case "large":
			set.Large = url
		}
	}
	log.Printf("[media] stored image %s under %s", set.ID, folder)
	return set, nil
}
