package services

// Messages shown by the views. Server messages take precedence wherever a
// fallback is listed.
const (
	MsgLoginToPredict   = "You must log in to make a prediction."
	MsgPredictLoadError = "Could not load the race or your prediction."
	MsgRaceUnavailable  = "Race not found or predictions not available."
	MsgPicksInvalid     = "Please select three different drivers for the top three places."
	MsgPredictionSaved  = "Prediction saved."
	MsgPredictionFailed = "Could not save the prediction. Make sure predictions are still open."
	MsgSubmitInProgress = "Your prediction is already being submitted."

	MsgResultIncomplete = "Please select a race and all three drivers."
	MsgResultDuplicate  = "The three official drivers must be different."
	MsgResultRecorded   = "Race result recorded successfully."
	MsgResultFailed     = "Could not record the results."
	MsgScoresNoRace     = "Please select a race to calculate scores."
	MsgScoresCalculated = "Scores calculated and assigned successfully."
	MsgScoresFailed     = "Could not calculate scores. Make sure the results are recorded and the race has not been processed."
	MsgAdminRacesError  = "Could not load races."
	MsgActionInProgress = "This action is already in progress."

	MsgRacesEmpty   = "No races available right now."
	MsgRacesError   = "Could not load races. Please try again later."
	MsgRankingEmpty = "No users in the ranking yet or nobody has scored points."
	MsgRankingError = "Could not load the ranking. Please try again later."

	MsgLoginToViewProfile = "You must log in to view user profiles."
	MsgProfileForbidden   = "You do not have permission to view this user's predictions."
	MsgProfileNotFound    = "User or predictions not found."
	MsgProfileError       = "Could not load the user's profile or predictions. Make sure you are logged in."
	MsgHistoryEmpty       = "This user has not made any predictions yet."
	MsgAvatarFailed       = "Could not upload the profile picture."
	MsgAvatarUpdated      = "Profile picture updated."
	MsgThemeFailed        = "Could not save the theme."
	MsgThemeSaved         = "Theme saved."
	MsgAvatarMissing      = "Please choose an image to upload."
	MsgAvatarTooLarge     = "The image is too large. The limit is 5 MB."
)
