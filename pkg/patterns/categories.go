package patterns

// =============================================================================
// PATTERN DEFINITIONS BY CATEGORY
// All patterns are registered here and compiled once at first Get().
// Keyword sets are expressed as alternation regexes over normalized text;
// URL and casing checks run against the raw text via registerRaw.
// =============================================================================

// --- URGENCY AND PRESSURE ---
func (r *Registry) registerUrgencyPatterns() {
	cat := CategoryUrgency

	r.register("urgent_action", `urgent|immediate|act now|expires?|limited time|today only|hurry|don't miss|last chance|deadline|offer ending|right now`, cat, 25, "Urgent action required language")
	r.register("time_window", `just \d+ (hours?|days?)|within \d+ (hours?|minutes?)`, cat, 25, "Artificial time window")
	r.register("click_lure", `click (here|the link|this link)|tap (here|the link|to claim)`, cat, 25, "Click-through lure")

	cat = CategoryPressure
	r.register("pressure_tactics", `final notice|warning|alert|attention|risk|danger|threat|join now|limited offer|restricted access|special invitation|selected few|privileged`, cat, 25, "Pressure and scarcity tactics")
	r.register("secrecy", `don't share|confidential|keep (this|it) secret|tell no one`, cat, 25, "Secrecy demand")
}

// --- PRIZE AND LOTTERY ---
func (r *Registry) registerPrizePatterns() {
	cat := CategoryPrize

	r.register("prize_win", `\bwon\b|winner|prize|reward|lottery|sweepstakes|jackpot|lucky draw|contest winner`, cat, 35, "Prize or lottery win claim")
	r.register("prize_claim", `claim (your|the)|selected|chosen|lucky|free gift|cash prize`, cat, 35, "Prize claim instruction")
	r.register("congratulations", `congratulations|congrats`, cat, 35, "Congratulatory hook")
}

// --- CREDENTIALS, ACCOUNTS AND PERSONAL DATA ---
func (r *Registry) registerCredentialPatterns() {
	cat := CategoryCredential

	r.register("verify_request", `verify|confirm|update|validate|authenticate|re-?activate`, cat, 25, "Verification request")
	r.register("credential_ask", `credentials|password|username|login|one.?time.?password|\botp\b|pin code`, cat, 25, "Credential solicitation")

	cat = CategoryAccountProblem
	r.register("account_trouble", `suspend|disabled|locked|frozen|restricted|unusual activity|suspicious login|security breach|unauthorized`, cat, 25, "Fabricated account problem")
	r.register("account_restore", `restore|reactivate|secure your|protect your`, cat, 25, "Account restoration lure")

	cat = CategoryPersonalInfo
	r.register("identity_data", `\bssn\b|social security|id number|\bkyc\b|aadhar|pan card|date of birth`, cat, 25, "Identity data solicitation")
}

// --- FINANCIAL ---
func (r *Registry) registerFinancialPatterns() {
	cat := CategoryFinancial

	r.register("money_movement", `transfer|payment|deposit|withdraw|transaction|send money|wire`, cat, 30, "Money movement request")
	r.register("bank_terms", `\bbank\b|account number|credit card|debit card|net.?banking|\bupi\b`, cat, 30, "Banking terminology")
	r.register("wealth_bait", `\bcash\b|funds?|wealth|\brich\b|millionaire|rupees?|dollars?`, cat, 30, "Wealth bait wording")
	// Normalization folds digits, so amounts are matched on the raw text.
	r.registerRaw("currency_amount", `(?i)[₹$€£]\s?\d[\d,]*|\b(usd|inr|eur|gbp|rs\.?)\s?\d`, cat, 30, "Currency amount")
}

// --- URLS ---
func (r *Registry) registerURLPatterns() {
	cat := CategorySuspiciousURL

	r.registerRaw("any_url", `(?i)(https?://|www\.)[a-z0-9]+([\-.][a-z0-9]+)*\.[a-z]{2,}(:[0-9]{1,5})?(/\S*)?`, cat, 20, "Embedded link")
	// Scam SMS often drops the scheme entirely ("verify-now.com").
	r.registerRaw("bare_domain", `(?i)\b[a-z0-9][a-z0-9-]*\.(com|net|org|in|co|xyz|info|me|online|site|top|click)(/\S*)?\b`, cat, 20, "Bare domain link")

	cat = CategoryShortURL
	r.registerRaw("shortener", `(?i)(https?://|www\.)?\b(bit\.ly|tinyurl\.com|t\.co|goo\.gl|is\.gd|cli\.gs|ow\.ly|tiny\.cc|tr\.im|su\.pr|snipurl\.com|short\.to|rb\.gy|cutt\.ly)/\S*`, cat, 35, "URL shortener link")
}

// --- CRYPTO ---
func (r *Registry) registerCryptoPatterns() {
	cat := CategoryCrypto

	r.register("crypto_terms", `crypto|bitcoin|\bbtc\b|\beth\b|ethereum|blockchain|\bnft\b|web3|defi|altcoin|\bhodl\b`, cat, 30, "Cryptocurrency terminology")
	r.register("crypto_assets", `\bdoge\b|shiba|solana|tether|usdt|\bxrp\b|ripple|litecoin|binance|crypto wallet|mining`, cat, 30, "Crypto asset names")
}

// --- JOBS AND LOANS ---
func (r *Registry) registerJobAndLoanPatterns() {
	cat := CategoryJobOffer

	r.register("job_offer", `\bjob\b|vacancy|work from home|\bwfh\b|remote work|hiring|earning potential|part.?time income`, cat, 30, "Unsolicited job offer")
	r.register("job_process", `apply now|recruitment|interview|salary up to|per day income`, cat, 30, "Job application hook")

	cat = CategoryLoan
	r.register("easy_loan", `pre-?approved|instant loan|quick loan|no documentation|zero interest|low interest|debt free`, cat, 30, "Too-easy loan offer")
	r.register("loan_terms", `\bloan\b|\bemi\b|credit score|credit history|mortgage|financing`, cat, 30, "Loan terminology")
}

// --- INVESTMENTS AND STOCKS ---
func (r *Registry) registerInvestmentPatterns() {
	cat := CategoryInvestment

	r.register("returns_promise", `double|triple|\d+x returns?|\d+% (profit|returns?|daily|weekly)|guaranteed (returns?|profit)`, cat, 30, "Unrealistic return promise")
	r.register("invest_terms", `invest(ment)?|trading profit|passive income|earn(ing)? (daily|weekly|monthly)`, cat, 30, "Investment solicitation")

	cat = CategoryStockTip
	r.register("stock_tip", `hot stock|insider tip|penny stock|multibagger|pre-?ipo|unlisted shares|sure ?shot`, cat, 35, "Stock tip bait")
	r.register("market_terms", `\bshares\b|\bstocks?\b|demat|intraday|\bipo\b`, cat, 35, "Stock market terminology")
}

// --- GROUP INVITES ---
func (r *Registry) registerGroupInvitePatterns() {
	cat := CategoryGroupInvite

	r.register("messenger_group", `telegram|whatsapp group|signal group|discord`, cat, 20, "Messenger group invite")
	r.register("group_join", `join (our|the|my) (group|channel|community)|group link|vip access|exclusive community|private group`, cat, 20, "Group join instruction")
}

// --- TAX, SHIPPING, SUCCESS STORIES, MARKETING ---
func (r *Registry) registerMiscScamPatterns() {
	cat := CategoryTaxScam

	r.register("tax_authority", `\btax\b|\birs\b|refund|\baudit\b|income tax|penalty|legal action|enforcement|court notice`, cat, 25, "Tax or authority impersonation")

	cat = CategoryShipping
	r.register("delivery_problem", `package|delivery|shipment|parcel|courier|customs|held at|clearance fee|redelivery`, cat, 20, "Delivery problem lure")
	r.register("carrier_names", `\bups\b|fedex|usps|\bdhl\b|india post|track(ing)? (your|number)`, cat, 20, "Carrier impersonation")

	cat = CategorySuccessStory
	r.register("success_story", `success story|testimonial|changed my life|financial freedom|quit my job|real results|rags to riches|wealth secret`, cat, 35, "Manufactured success story")

	cat = CategoryMarketing
	r.register("hype_language", `exclusive|premium|elite|guaranteed|proven|secret|revealed|unlock|amazing|incredible|revolutionary|breakthrough`, cat, 20, "Marketing hype language")
}
