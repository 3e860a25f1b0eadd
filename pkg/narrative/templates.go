package narrative

import (
	"strings"

	"github.com/menta2k/image-insight/pkg/caption"
	"github.com/menta2k/image-insight/pkg/types"
)

var templates = map[types.Purpose][]string{
	types.PurposePortrait: {
		"A portrait of {subject}{setting}.",
		"This portrait centers on {subject}{setting}.",
		"{subject} is the focus of this portrait{setting}.",
	},
	types.PurposeGroupPhoto: {
		"A group photo of {count} people{setting}.",
		"{count} people gather for a group photo{setting}.",
		"This group shot shows {count} people together{setting}.",
	},
	types.PurposeLandscape: {
		"A landscape view of {label}{place}.",
		"This wide view takes in {label}{place}.",
		"The scene opens onto {label}{place}.",
	},
	types.PurposeDocument: {
		"A document photographed or scanned for reading.",
		"This image captures a page of written material.",
		"A document with readable text fills the frame.",
	},
	types.PurposeScreenshot: {
		"A screenshot of an on-screen interface.",
		"This is a capture of a screen showing an interface.",
		"A screen capture with interface elements and text.",
	},
	types.PurposeCloseUp: {
		"A close-up of {subject}{setting}.",
		"This close shot fills the frame with {subject}.",
		"{subject} is shown up close{setting}.",
	},
	types.PurposePet: {
		"A picture of {subject}{setting}.",
		"This pet photo features {subject}{setting}.",
		"{subject} poses for the camera{setting}.",
	},
	types.PurposeFood: {
		"A food photo featuring {subject}{setting}.",
		"This shot shows {subject} ready to eat{setting}.",
		"{subject} is served up in this food photo{setting}.",
	},
	types.PurposeGeneral: {
		"An image showing {subject}{setting}.",
		"This photo features {subject}{setting}.",
		"{subject} appears in this picture{setting}.",
	},
}

var uncertainTemplates = []string{
	"The content of this {shape}{size} could not be identified with confidence{palette}.",
	"Nothing in this {shape}{size} was recognized clearly{palette}.",
	"This {shape}{size} has no clearly recognizable subject{palette}.",
}

// pick selects a template deterministically from the seed
func pick(options []string, seed uint64) string {
	if len(options) == 0 {
		return ""
	}
	return options[seed%uint64(len(options))]
}

// fill substitutes placeholders and capitalizes the sentence
func fill(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, k, v)
	}
	return caption.Capitalize(strings.NewReplacer(pairs...).Replace(template))
}
