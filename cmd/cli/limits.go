package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lumeoapp/lumeo/backend/internal/config"
	"github.com/spf13/cobra"
)

var limitsCmd = &cobra.Command{
	Use:   "limits",
	Short: "Print the composer's upload and content limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		limits := map[string]interface{}{
			"max_slides":            config.MaxSlides,
			"max_file_bytes":        config.MaxFileBytes,
			"max_caption_length":    config.MaxCaptionLength,
			"max_slide_caption":     config.MaxSlideCaptionLength,
			"max_alt_text_length":   config.MaxAltTextLength,
			"max_location_length":   config.MaxLocationLength,
			"max_tags":              config.MaxTags,
			"max_tagged_users":      config.MaxTaggedUsers,
			"draft_interval_sec":    int(config.DraftInterval.Seconds()),
			"allowed_mime_types":    allowedTypes(),
		}

		if output == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(limits)
		}

		fmt.Printf("Slides per post:     %d\n", config.MaxSlides)
		fmt.Printf("Max file size:       %d MB\n", config.MaxFileBytes>>20)
		fmt.Printf("Caption length:      %d\n", config.MaxCaptionLength)
		fmt.Printf("Slide caption:       %d\n", config.MaxSlideCaptionLength)
		fmt.Printf("Alt text length:     %d\n", config.MaxAltTextLength)
		fmt.Printf("Location length:     %d\n", config.MaxLocationLength)
		fmt.Printf("Tags per post:       %d\n", config.MaxTags)
		fmt.Printf("Tagged users:        %d\n", config.MaxTaggedUsers)
		fmt.Printf("Autosave interval:   %s\n", config.DraftInterval)
		fmt.Printf("Accepted formats:    %v\n", allowedTypes())
		return nil
	},
}

func allowedTypes() []string {
	types := make([]string, 0, len(config.AllowedMIMETypes))
	for t := range config.AllowedMIMETypes {
		types = append(types, t)
	}
	return types
}
