package conf

import "os"

// GetGradedSqsUrlFromEnv returns the url of the queue on which the grading
// pipeline publishes "submission graded" events.
func GetGradedSqsUrlFromEnv() string {
	url := os.Getenv("GRADED_SQS_QUEUE_URL")
	if url == "" {
		panic("GRADED_SQS_QUEUE_URL not set in .env file")
	}
	return url
}

// GetGradingApiKeyFromEnv returns the api key the grading pipeline uses to
// authenticate its http callbacks.
func GetGradingApiKeyFromEnv() string {
	key := os.Getenv("GRADING_API_KEY")
	if key == "" {
		panic("GRADING_API_KEY not set in .env file")
	}
	return key
}

func GetJwtKeyFromEnv() string {
	key := os.Getenv("JWT_KEY")
	if key == "" {
		panic("JWT_KEY not set in .env file")
	}
	return key
}
