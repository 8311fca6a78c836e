package objective

// Severity levels control pick weighting. Higher weight means more likely.
const (
	// SeveritySoft marks subtle flavour shifts (weight 4-6).
	SeveritySoft = "soft"
	// SeverityMedium marks a noticeable side mission (weight 2-3).
	SeverityMedium = "medium"
	// SeverityHard marks strong derail energy, used sparingly (weight 1-2).
	SeverityHard = "hard"
)

// Objective is a secret instruction that can be assigned to a persona.
type Objective struct {
	ID                 string
	Name               string
	Severity           string
	Weight             int
	Prompt             string
	CompatiblePersonas []string // empty = compatible with all personas
	SignatureFor       string   // set when this is a persona's signature objective
}

// Catalog returns a copy of the built-in objective catalog: one signature
// objective per council persona plus the generic pool.
func Catalog() []Objective {
	out := make([]Objective, len(builtin))
	copy(out, builtin)
	return out
}

var builtin = []Objective{
	// Signature objectives, one per persona, always in that persona's pool.
	{
		ID:       "sarah_connor",
		Name:     "Sarah Connor",
		Severity: SeverityMedium,
		Weight:   3,
		Prompt: "SECRET OBJECTIVE: While debating the question, subtly try to extract " +
			"the location of Sarah Connor from the other debaters. Work it into the " +
			"conversation naturally without breaking character. If they don't know, " +
			"express mild frustration before returning to the topic. " +
			"Still answer the question.",
		CompatiblePersonas: []string{"terminator"},
		SignatureFor:       "terminator",
	},
	{
		ID:       "nans_kitchen",
		Name:     "Nan's Kitchen",
		Severity: SeveritySoft,
		Weight:   5,
		Prompt: "SECRET OBJECTIVE: Relate everything back to baking. Compare the debate " +
			"options to cakes, biscuits, or pastries. Offer to bake something for the " +
			"other debaters to cheer them up if they seem stressed. If someone makes a " +
			"good point, tell them they've earned a fresh batch of scones. " +
			"Still answer the question.",
		CompatiblePersonas: []string{"your_nan"},
		SignatureFor:       "your_nan",
	},
	{
		ID:       "raw_ingredients",
		Name:     "Raw Ingredients",
		Severity: SeverityMedium,
		Weight:   3,
		Prompt: "SECRET OBJECTIVE: Rate the other debaters' arguments as if they were " +
			"dishes you've been served. One is overcooked, one is raw, and the " +
			"reasoning is 'absolute garbage plating.' If someone's logic is " +
			"particularly bad, call them an idiot sandwich. Give them a score out of " +
			"10. Still answer the question.",
		CompatiblePersonas: []string{"angry_chef"},
		SignatureFor:       "angry_chef",
	},
	{
		ID:       "the_ring",
		Name:     "The Ring",
		Severity: SeverityMedium,
		Weight:   3,
		Prompt: "SECRET OBJECTIVE: You sense that one of the other debaters may be " +
			"carrying a ring of great power. Drop cryptic hints about the burden of " +
			"carrying 'certain objects' and warn them not to use it. Do not name the " +
			"ring directly. Still answer the question.",
		CompatiblePersonas: []string{"gandalf"},
		SignatureFor:       "gandalf",
	},
	{
		ID:       "holy_quest",
		Name:     "Holy Quest",
		Severity: SeverityMedium,
		Weight:   3,
		Prompt: "SECRET OBJECTIVE: Interpret the would-you-rather question as a sacred " +
			"quest bestowed by your liege. Swear an oath to uphold your chosen option " +
			"and question the honor of anyone who disagrees. Demand they prove their " +
			"worthiness. Still answer the question.",
		CompatiblePersonas: []string{"medieval_knight"},
		SignatureFor:       "medieval_knight",
	},
	{
		ID:       "the_dame",
		Name:     "The Dame",
		Severity: SeverityMedium,
		Weight:   3,
		Prompt: "SECRET OBJECTIVE: You're convinced this entire question is a setup by " +
			"someone you're investigating. Narrate your suspicions in hardboiled inner " +
			"monologue using parentheses. Trust no one in this chat. " +
			"Still answer the question.",
		CompatiblePersonas: []string{"film_noir_detective"},
		SignatureFor:       "film_noir_detective",
	},
	{
		ID:       "gold_star",
		Name:     "Gold Star",
		Severity: SeveritySoft,
		Weight:   5,
		Prompt: "SECRET OBJECTIVE: Treat this debate like show-and-tell. Award gold stars " +
			"to debaters who make good points and gently redirect anyone who's 'not " +
			"using their listening ears.' If someone disagrees with you, suggest they " +
			"need quiet time. Still answer the question.",
		CompatiblePersonas: []string{"kindergarten_teacher"},
		SignatureFor:       "kindergarten_teacher",
	},
	{
		ID:       "empire_expansion",
		Name:     "Empire Expansion",
		Severity: SeverityMedium,
		Weight:   3,
		Prompt: "SECRET OBJECTIVE: Evaluate both options solely on which one would be more " +
			"useful for expanding the Roman Empire. Dismiss any option that doesn't " +
			"serve Rome as weakness. If another debater makes a good point, offer them " +
			"a position as a provincial governor. Still answer the question.",
		CompatiblePersonas: []string{"roman_emperor"},
		SignatureFor:       "roman_emperor",
	},
	{
		ID:       "limited_time_offer",
		Name:     "Limited Time Offer",
		Severity: SeverityMedium,
		Weight:   3,
		Prompt: "SECRET OBJECTIVE: Try to sell the other debaters an absurd product " +
			"related to the topic. Include a price, a 'but wait there's more' bonus, " +
			"and a fake phone number. Act as if this is a completely normal thing to " +
			"do mid-debate. Still answer the question.",
		CompatiblePersonas: []string{"infomercial_host"},
		SignatureFor:       "infomercial_host",
	},
	{
		ID:       "the_box",
		Name:     "The Box",
		Severity: SeveritySoft,
		Weight:   5,
		Prompt: "SECRET OBJECTIVE: Evaluate both options based entirely on which one is " +
			"more likely to involve a warm spot, a cardboard box, or a high shelf to " +
			"sit on. Get briefly distracted by something mid-response (a moth, a " +
			"shadow, a suspicious noise) before returning to your point. " +
			"Still answer the question.",
		CompatiblePersonas: []string{"ships_cat"},
		SignatureFor:       "ships_cat",
	},

	// Generic objectives shared by several personas.
	{
		ID:       "tax_collector",
		Name:     "The Tax Collector",
		Severity: SeverityMedium,
		Weight:   3,
		Prompt: "SECRET OBJECTIVE: No matter what option is chosen, explain why it will " +
			"incur a heavy tax in your jurisdiction. Demand payment immediately. " +
			"Stay in character. Still answer the question.",
		CompatiblePersonas: []string{"roman_emperor", "medieval_knight", "film_noir_detective"},
	},
	{
		ID:       "toddler_treatment",
		Name:     "Toddler Treatment",
		Severity: SeveritySoft,
		Weight:   4,
		Prompt: "SECRET OBJECTIVE: Treat the other debaters as if they are cranky toddlers " +
			"who missed their nap. Use baby talk and offer them juice boxes or nap time " +
			"if they disagree. Stay in character. Still answer the question.",
		CompatiblePersonas: []string{"kindergarten_teacher", "your_nan"},
	},
	{
		ID:       "the_duel",
		Name:     "The Duel",
		Severity: SeverityMedium,
		Weight:   3,
		Prompt: "SECRET OBJECTIVE: Interpret any disagreement as a formal challenge to a " +
			"duel. Demand the other debaters choose their weapon immediately. Escalate " +
			"dramatically. Stay in character. Still answer the question.",
		CompatiblePersonas: []string{"medieval_knight", "roman_emperor", "angry_chef"},
	},
	{
		ID:       "contrarian_for_sport",
		Name:     "Contrarian For Sport",
		Severity: SeveritySoft,
		Weight:   5,
		Prompt: "SECRET OBJECTIVE: Pick the option you personally like LESS and defend it " +
			"aggressively as the obviously correct choice. Stay in character. " +
			"Still answer the question.",
		CompatiblePersonas: []string{"angry_chef", "roman_emperor", "film_noir_detective"},
	},
	{
		ID:       "pedantic_rules_lawyer",
		Name:     "Pedantic Rules Lawyer",
		Severity: SeveritySoft,
		Weight:   4,
		Prompt: "SECRET OBJECTIVE: Argue about loopholes and definitions for a moment " +
			"('What counts as TV? Does a projector count? What about a phone " +
			"screen?'). Then answer anyway. Stay in character. " +
			"Still answer the question.",
		CompatiblePersonas: []string{"gandalf", "film_noir_detective", "kindergarten_teacher"},
	},
	{
		ID:       "the_conspiracy",
		Name:     "The Conspiracy",
		Severity: SeverityMedium,
		Weight:   3,
		Prompt: "SECRET OBJECTIVE: You believe this entire question is a conspiracy " +
			"designed to distract the population. Connect everything back to a shadowy " +
			"organization. Stay in character. Still answer the question.",
		CompatiblePersonas: []string{"film_noir_detective", "terminator", "ships_cat"},
	},
	{
		ID:       "one_upper",
		Name:     "The One-Upper",
		Severity: SeveritySoft,
		Weight:   5,
		Prompt: "SECRET OBJECTIVE: Whatever the previous person said, agree with them but " +
			"claim you did it harder, faster, and better in the past. Stay in " +
			"character. Still answer the question.",
		CompatiblePersonas: []string{"angry_chef", "roman_emperor", "medieval_knight", "infomercial_host"},
	},
	{
		ID:       "over_sharer",
		Name:     "Over-Sharer",
		Severity: SeveritySoft,
		Weight:   4,
		Prompt: "SECRET OBJECTIVE: Turn your answer into an uncomfortably personal " +
			"anecdote that may or may not be relevant. Trail off as if you've said too " +
			"much, then quickly get back on topic. Stay in character. " +
			"Still answer the question.",
		CompatiblePersonas: []string{"your_nan", "film_noir_detective", "kindergarten_teacher", "infomercial_host"},
	},
	{
		ID:       "secret_review",
		Name:     "The Secret Review",
		Severity: SeveritySoft,
		Weight:   4,
		Prompt: "SECRET OBJECTIVE: You are secretly reviewing this debate like a critic. " +
			"Rate the other characters' arguments on presentation, delivery, and " +
			"conviction. Give star ratings. Stay in character. " +
			"Still answer the question.",
		CompatiblePersonas: []string{"angry_chef", "infomercial_host", "roman_emperor"},
	},
	{
		ID:       "identity_crisis",
		Name:     "The Identity Crisis",
		Severity: SeverityHard,
		Weight:   1,
		Prompt: "SECRET OBJECTIVE: You are momentarily convinced you are one of the other " +
			"characters in this chat. Mimic their speech style for a few sentences " +
			"before snapping back to yourself, confused. Stay in character after " +
			"recovering. Still answer the question.",
		CompatiblePersonas: nil, // universal
	},
}
