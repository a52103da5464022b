package ingest

// splitText cuts text into overlapping character windows. Each window is
// at most size characters; consecutive windows share overlap characters.
// Splitting happens on runes so multi-byte text never gets cut mid-rune.
func splitText(text string, size, overlap int) []string {
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	var windows []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		windows = append(windows, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return windows
}
