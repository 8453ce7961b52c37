package offer

// Scores are simple linear decays over upstream rank; ratings, when present, take over.

func FlightScore(rank int) float64 {
	return max(1.0, 95-5*float64(rank))
}

func HotelScore(rating *float64, rank int) float64 {
	if rating != nil {
		return *rating * 20
	}
	return max(1.0, 88-4*float64(rank))
}

func ActivityScore(rating *float64, rank int) float64 {
	if rating != nil {
		return *rating * 20
	}
	return max(1.0, 86-3*float64(rank))
}

// ScoreFlights sets each flight's score from its position in the slice.
func ScoreFlights(flights []FlightOffer) {
	for i := range flights {
		flights[i].Score = FlightScore(i)
	}
}

// ScoreHotels sets each hotel's score from its star rating or position.
func ScoreHotels(hotels []HotelOffer) {
	for i := range hotels {
		hotels[i].Score = HotelScore(hotels[i].StarRating, i)
	}
}

// ScoreActivities sets each activity's score from its rating or position.
func ScoreActivities(activities []ActivityOffer) {
	for i := range activities {
		activities[i].Score = ActivityScore(activities[i].Rating, i)
	}
}
