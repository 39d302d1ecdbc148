package flow

// Fixed reply copy used by the controller. Markdown emphasis is rendered by
// the chat surface.
const (
	replyWelcomeBack      = "You're welcome! 😊\n\nIf you need help with EMI, eligibility, or any home-loan policy, feel free to ask."
	replyGreeting         = "Hello! How can I assist you with your Home Loan today?"
	replyNotUnderstood    = "I'm sorry, I didn't understand that."
	replyConfusedReset    = "I'm sorry, I got confused. Let's start over. How can I help?"
	replyEMIInvite        = "**Would you like to calculate your EMI?**"
	replyAskPrincipal     = "Great! To calculate your EMI, please provide the **Principal Loan Amount**."
	replyAskPrincipalAlt  = "Sure! Please provide your Principal Loan Amount."
	replyAskTenure        = "Got it. What is the **Loan Tenure** (in years)?"
	replyAskROI           = "Great. What is the **Rate of Interest (ROI)**?"
	replyInvalidPrincipal = "Please provide a valid principal amount."
	replyInvalidTenure    = "Please provide a valid tenure between 1-30 years."
	replyInvalidROI       = "Please provide a valid interest rate."
	replyRestartEMI       = "Sorry, let's restart the EMI flow. Please provide the **Principal Loan Amount**."
	replyAskYesNo         = "Please answer Yes or No."
	replyAskIncome        = "Sure! To check eligibility, please provide your **Monthly Income**."
	replyAskIncomeShort   = "Great! Please share your **Monthly Income**."
	replyAskIncomeEscape  = "Sure! Let's check your eligibility.\n\nPlease provide your Monthly Income."
	replyInvalidIncome    = "Please provide a valid monthly income."
	replyAskExpense       = "Thanks. What are your **Monthly Expenses**?"
	replyInvalidExpense   = "Please provide valid monthly expenses."
	replyAskEmployment    = "Got it. Are you **Salaried** or **Self-Employed**?"
	replyAskDOB           = "What is your **Date of Birth**? (YYYY-MM-DD)"
	replyAskPinCode       = "Thanks. What is your **Pincode**?"
	replyAskLoanType      = "Is this for a **Fresh Loan** or a **Balance Transfer**?"
	replyAskName          = "Great! Before we continue, may I know your **Full Name** (e.g., Rohan Sharma)?"
	replyAskNameContact   = "Great! May I know your **Full Name** (e.g., Rohan Sharma)?"
	replyInvalidName      = "Please enter your full name (e.g., Rohan Sharma)."
	replyAskPhone         = "Thank you! Please provide your **10-digit mobile number**."
	replyInvalidPhone     = "Invalid phone number. Please enter a 10-digit mobile number."
	replyAskEmail         = "Thanks! Now please share your **email address**."
	replyInvalidEmail     = "Please provide a valid email address."
	replyOTPIncorrect     = "Incorrect OTP. Please try again."
	replyOTPMissing       = "OTP missing. Let's restart email verification. Please share your **email address**."
	replyContactVerified  = "Verification successful! Our representative will contact you shortly."
	replyAskContact       = "Would you like our representative to contact you? (Yes/No)"
	replyAnythingElse     = "Alright. Anything else I can help you with?"
	replyReplyYesNo       = "Please reply Yes or No."
	replyOracleDown       = "I'm sorry, I couldn't find an answer for that right now."
	replyEMIFailed        = "Sorry, I couldn't compute an EMI from those values. Let's try again: please provide the **Principal Loan Amount**."
)
