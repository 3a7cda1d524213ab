package survey

// OfferView is an offer resolved for the session's group: text arm gets the
// description, visual arm gets the image and its caption.
type OfferView struct {
	Name    string `json:"name"`
	Text    string `json:"text,omitempty"`
	Image   string `json:"image,omitempty"`
	Caption string `json:"caption,omitempty"`
}

type Progress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// PageView is everything a display needs to render the current page.
type PageView struct {
	SessionID string         `json:"sessionId"`
	Group     string         `json:"group"`
	Index     int            `json:"index"`
	Key       string         `json:"key"`
	Title     string         `json:"title"`
	Intro     []string       `json:"intro,omitempty"`
	Offer     *OfferView     `json:"offer,omitempty"`
	Questions []Question     `json:"questions,omitempty"`
	Answers   map[string]any `json:"answers"`
	Progress  Progress       `json:"progress"`
	CanBack   bool           `json:"canBack"`
	CanNext   bool           `json:"canNext"`
	CanSubmit bool           `json:"canSubmit"`
	Submitted bool           `json:"submitted"`
}

func resolveOffer(o *Offer, group string) *OfferView {
	if o == nil {
		return nil
	}
	if group == GroupVisual {
		return &OfferView{Name: o.Name, Image: o.Image, Caption: o.Caption}
	}
	return &OfferView{Name: o.Name, Text: o.Text}
}

// View renders the session's current page, or the completion view once the
// session is submitted.
func (c *Controller) View(s *Session) PageView {
	total := c.schedule.Len()
	if s.Submitted() {
		return PageView{
			SessionID: s.ID,
			Group:     s.Group,
			Index:     NoPage,
			Key:       "completed",
			Title:     CompletionTitle,
			Answers:   map[string]any{},
			Progress:  Progress{Current: total, Total: total},
			Submitted: true,
		}
	}

	p, _ := c.schedule.Page(s.CurrentPage)
	answers := make(map[string]any, len(p.Questions))
	for _, q := range p.Questions {
		v, ok := s.Answers.Get(q.Key)
		switch {
		case ok:
			answers[q.Key] = copyValue(v)
		case q.Default != nil && q.Grouped():
			defaults := make(Items, len(q.Items))
			for _, label := range q.Labels() {
				defaults[label] = q.Default
			}
			answers[q.Key] = defaults
		case q.Default != nil:
			answers[q.Key] = q.Default
		}
	}

	return PageView{
		SessionID: s.ID,
		Group:     s.Group,
		Index:     p.Index,
		Key:       p.Key,
		Title:     p.Title,
		Intro:     p.Intro,
		Offer:     resolveOffer(p.Offer, s.Group),
		Questions: p.Questions,
		Answers:   answers,
		Progress:  Progress{Current: p.Index + 1, Total: total},
		CanBack:   p.Prev != NoPage,
		CanNext:   !p.Terminal(),
		CanSubmit: p.Terminal(),
	}
}
