// Package moodcam provides a zero-shot image emotion classifier that embeds
// images and label prompts into a shared vector space and scores them by
// cosine similarity.
//
// Quick start:
//
//	m, err := moodcam.New(moodcam.WithModelDir("models/"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	result, _ := m.Classify(img)
//	fmt.Println(result.Label, result.Confidence) // happy 0.87
//
// The Moodcam instance is safe for concurrent use. Create once, reuse across
// frames: construction loads the models and pre-embeds the label prompts.
package moodcam
