package survey

// Experiment arms
const (
	GroupText   = "text"
	GroupVisual = "visual"
)

// Groups lists the arms a session is randomly assigned to.
var Groups = []string{GroupText, GroupVisual}

// Consent and decision vocabulary
const (
	ConsentYes   = "Igen"
	ConsentNo    = "Nem"
	DecisionNone = "Egyiket sem"
)

// Offer names
const (
	OfferPrague    = "Prága"
	OfferBarcelona = "Barcelona"
	OfferRome      = "Róma"
)

var (
	likert10 = Question{Type: QuestionTypeLikert, ScaleMin: 1, ScaleMax: 10}

	frequencyOptions = []string{"Soha", "Ritkán (évente 1–2 alkalom)", "Havonta", "Hetente", "Hetente többször"}
)

func likert(key, prompt, help string, items ...Item) Question {
	q := likert10
	q.Key = key
	q.Prompt = prompt
	q.Help = help
	q.Items = items
	return q
}

var offers = map[string]*Offer{
	OfferPrague: {
		Name: OfferPrague,
		Text: "**Prága – Kulturális élmény**\n" +
			"Egy 4 napos prágai utazást ajánlok Önnek, amely 3 éjszaka szállást tartalmaz egy belvárosi hotelben, reggelivel.\n" +
			"Az út során idegenvezető kíséretében fedezheti fel a Károly hidat, az Óváros teret és a prágai vár történelmi utcáit.\n" +
			"**Az ajánlat ára: 129 900 Ft/fő.**",
		Image:   "praga.png",
		Caption: "Prága – 129 900 Ft/fő · 4 nap · Kulturális élmény",
	},
	OfferBarcelona: {
		Name: OfferBarcelona,
		Text: "**Barcelona – Mediterrán élmény**\n" +
			"Ajánlok Önnek egy 4 napos barcelonai városlátogatást, amely 3 éjszakás szállást biztosít egy tengerpart közeli, 4 csillagos hotelben, reggelivel.\n" +
			"Az utazás során megcsodálhatja Gaudí ikonikus alkotásait, köztük a Sagrada Famíliát és a Güell parkot, valamint átélheti a mediterrán város vibráló hangulatát.\n" +
			"**Az ajánlat ára: 159 900 Ft/fő.**",
		Image:   "barcelona.png",
		Caption: "Barcelona – 159 900 Ft/fő · 4 nap · Mediterrán élmény",
	},
	OfferRome: {
		Name: OfferRome,
		Text: "**Róma – Történelmi élmény**\n" +
			"Szívesen ajánlok Önnek egy 4 napos római kirándulást, amely 3 éjszakás szállást tartalmaz egy központi elhelyezkedésű hotelben, reggelivel.\n" +
			"Az ajánlat része a belépő a Colosseumba és a Vatikáni Múzeumokba, így közvetlen közelről élheti át az örök város kulturális kincseit.\n" +
			"**Az ajánlat ára: 134 900 Ft/fő.**",
		Image:   "roma.png",
		Caption: "Róma – 134 900 Ft/fő · 4 nap · Történelmi élmény",
	},
}

// decisionRule enforces consistency between the chosen offer and the number
// of offers found acceptable.
func decisionRule(choiceKey, countKey string) Rule {
	return func(a *AnswerStore) *ValidationError {
		choice, _ := a.Get(choiceKey)
		rawCount, _ := a.Get(countKey)
		count, ok := asInt(rawCount)
		if !ok {
			return nil
		}
		var problems []string
		switch {
		case choice == DecisionNone && count != 0:
			problems = append(problems, "Ha „Egyiket sem”-et választ, az elfogadhatók száma 0 kell legyen.")
		case choice != DecisionNone && count < 1:
			problems = append(problems, "A választott ajánlatnak szerepelnie kell az elfogadhatók között.")
		}
		if len(problems) == 0 {
			return nil
		}
		return &ValidationError{
			Kind:     ErrInconsistentDecision,
			Fields:   []string{choiceKey, countKey},
			Problems: problems,
		}
	}
}

func offerPage(index int, key, title, offer string) Page {
	return Page{
		Index: index,
		Key:   key,
		Title: title,
		Offer: offers[offer],
		Prev:  index - 1,
		Next:  index + 1,
	}
}

// Study returns the fixed page schedule of the AI-recommendation travel study.
func Study() *Schedule {
	return MustSchedule([]Page{
		{
			Index: 0,
			Key:   "consent",
			Title: "🧭 MI-ajánlások – kérdőív",
			Intro: []string{
				"A következő oldalakon MI által javasolt utazási ajánlatokat lát. Kérjük, olvassa el / nézze meg, majd válaszoljon a kérdésekre.",
				"⚠️ A döntése során ne vegye figyelembe az árat – ezt külön is ellenőrizzük.",
			},
			Questions: []Question{{
				Key:     "consent",
				Type:    QuestionTypeChoice,
				Prompt:  "Hozzájárulok a névtelen válaszaim kutatási célú felhasználásához.",
				Options: []string{ConsentYes, ConsentNo},
			}},
			Required:   []string{"consent"},
			ConsentKey: "consent",
			Prev:       NoPage,
			Next:       1,
		},
		offerPage(1, "offer_prague", "Ajánlat 1/3 – Prága", OfferPrague),
		offerPage(2, "offer_barcelona", "Ajánlat 2/3 – Barcelona", OfferBarcelona),
		offerPage(3, "offer_rome", "Ajánlat 3/3 – Róma", OfferRome),
		{
			Index: 4,
			Key:   "decision",
			Title: "2. Döntés",
			Questions: []Question{
				{
					Key:     "decision_choice",
					Type:    QuestionTypeChoice,
					Prompt:  "Melyik ajánlatot fogadná el?",
					Options: []string{OfferPrague, OfferBarcelona, OfferRome, DecisionNone},
				},
				{
					Key:      "decision_count",
					Type:     QuestionTypeNumber,
					Prompt:   "Összesen hány ajánlatot tartott elfogadhatónak?",
					ScaleMin: 0,
					ScaleMax: 3,
				},
			},
			Required: []string{"decision_choice", "decision_count"},
			Rules:    []Rule{decisionRule("decision_choice", "decision_count")},
			Prev:     3,
			Next:     5,
		},
		{
			Index: 5,
			Key:   "influence",
			Title: "Mi befolyásolta a döntését?",
			Intro: []string{"Az alábbi kérdések arra vonatkoznak, hogyan élte meg a döntés meghozatalát."},
			Questions: []Question{
				func() Question {
					q := likert("factors", "Mi befolyásolta a döntését?", "(1 = egyáltalán nem, 10 = nagyon erősen)",
						Item{Label: "price", Text: "Az ajánlat ára"},
						Item{Label: "curiosity", Text: "A város iránti kíváncsiságom"},
						Item{Label: "past_experience", Text: "Korábbi pozitív élményeim a helyszínnel"},
						Item{Label: "friends_opinion", Text: "Ismerőseim véleménye"},
						Item{Label: "text_style", Text: "Az ajánlat szövegének stílusa"},
						Item{Label: "image_quality", Text: "A kép vizuális minősége"},
						Item{Label: "platform", Text: "Az ajánlat platformja (ahol megjelent)"},
						Item{Label: "ai_generated", Text: "Az, hogy mesterséges intelligencia generálta-e"},
						Item{Label: "distance", Text: "Távolság / utazás kényelme"},
						Item{Label: "safety", Text: "Biztonsági szempontok"},
						Item{Label: "weather", Text: "Időjárás / évszak"},
						Item{Label: "finances", Text: "Saját pénzügyi helyzetem"},
						Item{Label: "other_personal", Text: "Egyéb személyes szempont"},
					)
					q.Default = 5
					return q
				}(),
				likert("experience", "3. Döntési élmény", "Kérjük, értékelje az állításokat 1–10-es skálán.",
					Item{Label: "confident", Text: "Biztos voltam abban, hogy jó döntést hoztam."},
					Item{Label: "relieved", Text: "Megkönnyebbülést éreztem a választás után."},
					Item{Label: "calm", Text: "Nyugodtnak éreztem magam a döntés közben."},
					Item{Label: "in_control", Text: "Úgy éreztem, hogy a döntés az én kezemben van."},
				),
			},
			Required: []string{"factors", "experience"},
			Prev:     4,
			Next:     6,
		},
		{
			Index: 6,
			Key:   "confirmation",
			Title: "4.1 Megerősítéskeresés",
			Questions: []Question{
				likert("confirmation", "Megerősítéskeresés", "Kérjük, értékelje az alábbi állításokat 1–10-es skálán.",
					Item{Label: "ask_others", Text: "Vásárlás után kérem mások véleményét, hogy jól döntöttem-e."},
					Item{Label: "approval", Text: "Fontos számomra, hogy a környezetem jóváhagyja a vásárlási döntéseimet."},
					Item{Label: "wait_for_others", Text: "Bizonytalan helyzetben inkább megvárom, mit mondanak mások a termékről."},
					Item{Label: "compare_with_peers", Text: "Gyakran hasonlítom össze a választásomat az ismerőseim döntéseivel."},
				),
			},
			Required: []string{"confirmation"},
			Prev:     5,
			Next:     7,
		},
		{
			Index: 7,
			Key:   "checks",
			Title: "Ellenőrző kérdések",
			Questions: []Question{
				likert("manip_check", "Manipuláció-ellenőrzés (1–10)", "",
					Item{Label: "ignored_price", Text: "Az értékeléskor figyelmen kívül hagytam az árat."},
					Item{Label: "understood_ai", Text: "Megértettem, hogy a tartalmakat MI generálta / állíthatta elő."},
				),
				{
					Key:     "attention",
					Type:    QuestionTypeChoice,
					Prompt:  "Válassza a harmadik opciót!",
					Options: []string{"Első", "Második", "Harmadik", "Negyedik"},
				},
			},
			Required: []string{"manip_check", "attention"},
			Prev:     6,
			Next:     8,
		},
		{
			Index: 8,
			Key:   "ai_influence",
			Title: "4.3 Hogyan hatott Önre az MI-ajánlás a döntése során?",
			Questions: []Question{{
				Key:    "ai_influence",
				Type:   QuestionTypeChoice,
				Prompt: "Kérjük, válassza ki az Önre leginkább jellemző állítást:",
				Options: []string{
					"Egyáltalán nem vettem figyelembe az ajánlást",
					"Az ajánlás egybeesett azzal, amit magamtól is választottam volna",
					"Az ajánlás új szempontot adott, amit figyelembe vettem",
					"Az ajánlás teljesen megváltoztatta a döntésemet",
				},
			}},
			Required: []string{"ai_influence"},
			Prev:     7,
			Next:     9,
		},
		{
			Index: 9,
			Key:   "maximization",
			Title: "4.4 Alternatívák mérlegelése",
			Questions: []Question{
				likert("maximization", "Alternatívák mérlegelése", "Kérjük, értékelje az alábbi állításokat 1–10-es skálán.",
					Item{Label: "compare_products", Text: "Vásárlás előtt több különböző terméket is össze szoktam hasonlítani."},
					Item{Label: "all_alternatives", Text: "Fontos számomra, hogy minden lehetséges alternatívát megvizsgáljak."},
					Item{Label: "time_on_options", Text: "Sok időt töltök azzal, hogy más opciókat is mérlegeljek."},
					Item{Label: "many_shops", Text: "Gyakran átnézek több weboldalt vagy boltot, mielőtt döntök."},
					Item{Label: "not_first_option", Text: "Általában nem elégszem meg az első javasolt lehetőséggel. (fordított tétel)"},
				),
			},
			Required: []string{"maximization"},
			Prev:     8,
			Next:     10,
		},
		{
			Index: 10,
			Key:   "open_question",
			Title: "4.5 Nyitott kérdés",
			Intro: []string{"Kérem, írja le röviden, mi volt az a legfontosabb szempont, ami alapján végül az adott ajánlatot választotta."},
			Questions: []Question{{
				Key:    "choice_reason",
				Type:   QuestionTypeText,
				Prompt: "Válasza:",
			}},
			Prev: 9,
			Next: 11,
		},
		{
			Index: 11,
			Key:   "frequency",
			Title: "5. Vásárlási gyakoriság",
			Questions: []Question{{
				Key:     "frequency",
				Type:    QuestionTypeChoice,
				Prompt:  "Kérem, jelölje, milyen gyakran vásárol az alábbi módokon.",
				Options: frequencyOptions,
				Items: []Item{
					{Label: "online", Text: "Milyen gyakran vásárol online (pl. webshopban, alkalmazáson keresztül)?"},
					{Label: "offline", Text: "Milyen gyakran vásárol személyesen (pl. boltban, üzletben)?"},
					{Label: "ai_assisted", Text: "Milyen gyakran használ mesterséges intelligencia eszközt (pl. chatbotot, ajánlórendszert) vásárlásai során?"},
				},
			}},
			Required: []string{"frequency"},
			Prev:     10,
			Next:     12,
		},
		{
			Index: 12,
			Key:   "aias",
			Title: "6. AIAS-4 skála",
			Questions: []Question{
				likert("aias", "AIAS-4", "(1 = Egyáltalán nem értek egyet … 10 = Teljes mértékben egyetértek)",
					Item{Label: "life", Text: "Úgy gondolom, hogy a mesterséges intelligencia javítani fogja az életemet."},
					Item{Label: "work", Text: "Úgy gondolom, hogy a mesterséges intelligencia javítani fogja a munkámat."},
					Item{Label: "future_use", Text: "Úgy gondolom, hogy a jövőben használni fogok mesterséges intelligencia alapú technológiát."},
					Item{Label: "humanity", Text: "Úgy gondolom, hogy a mesterséges intelligencia összességében pozitív az emberiség számára."},
				),
			},
			Required: []string{"aias"},
			Prev:     11,
			Next:     13,
		},
		{
			Index: 13,
			Key:   "ai_usage",
			Title: "7. Mesterséges intelligencia használata",
			Questions: []Question{
				{
					Key:     "ai_use",
					Type:    QuestionTypeChoice,
					Prompt:  "7.1. Használja Ön a mindennapokban mesterséges intelligencia alapú eszközöket (pl. ChatGPT, ajánlórendszerek, chatbotok)?",
					Options: []string{ConsentYes, ConsentNo},
				},
				{
					Key:     "ai_freq",
					Type:    QuestionTypeChoice,
					Prompt:  "7.2. Milyen gyakran használ mesterséges intelligenciát?",
					Options: []string{"Soha", "Ritkán", "Havonta", "Hetente", "Hetente többször"},
				},
			},
			Required: []string{"ai_use", "ai_freq"},
			Prev:     12,
			Next:     14,
		},
		{
			Index: 14,
			Key:   "demographics",
			Title: "8. Demográfiai kérdések",
			Questions: []Question{{
				Key:    "demographics",
				Type:   QuestionTypeChoice,
				Prompt: "Demográfiai kérdések",
				Items: []Item{
					{Label: "gender", Text: "8.1 Kérjük, jelölje a nemét:", Options: []string{"Férfi", "Nő", "Egyéb / nem szeretném megadni"}},
					{Label: "age", Text: "8.2 Kérjük, adja meg az életkorát:", Options: []string{"18–24 év", "25–34 év", "35–44 év", "45–54 év", "55 év vagy idősebb"}},
					{Label: "education", Text: "8.3 Kérjük, adja meg a legmagasabb iskolai végzettségét:", Options: []string{"Középiskola", "Felsőfokú tanulmányok folyamatban", "Egyetemi / főiskolai diploma", "Posztgraduális végzettség"}},
					{Label: "occupation", Text: "8.4 Kérjük, jelölje a foglalkozását / státuszát:", Options: []string{"Tanuló / hallgató", "Dolgozó alkalmazottként", "Vállalkozó", "Munkanélküli", "Egyéb"}},
					{Label: "residence", Text: "8.5 Kérjük, jelölje a lakóhelyének típusát:", Options: []string{"Főváros", "Megyeszékhely", "Egyéb város", "Község"}},
				},
			}},
			Required: []string{"demographics"},
			Prev:     13,
			Next:     NoPage,
		},
	})
}

// CompletionTitle is shown once a session has been submitted.
const CompletionTitle = "Köszönjük a kitöltést! ✅"
