package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/programme-lv/scoreboard/conf"
	"github.com/programme-lv/scoreboard/http/scorehttp"
	"github.com/programme-lv/scoreboard/score/scorepgrepo"
	"github.com/programme-lv/scoreboard/score/scoresrvc"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		panic("Error loading .env file")
	}

	jwtKey := conf.GetJwtKeyFromEnv()
	gradingApiKey := conf.GetGradingApiKeyFromEnv()
	sqsUrl := conf.GetGradedSqsUrlFromEnv()

	pg, err := pgxpool.New(context.Background(), conf.GetPgConnStrFromEnv())
	if err != nil {
		panic(fmt.Sprintf("unable to create pg pool, %v", err))
	}
	defer pg.Close()

	scoreSrvc := scoresrvc.NewScoreSrvc(
		scorepgrepo.NewPgScoreStore(pg),
		scorepgrepo.NewPgSubmSource(pg),
		scorepgrepo.NewPgTaskSrvc(pg),
		scorepgrepo.NewPgContestSrvc(pg),
	)

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("eu-central-1"),
	)
	if err != nil {
		panic(fmt.Sprintf("unable to load SDK config, %v", err))
	}
	sqsClient := sqs.NewFromConfig(cfg)

	go func() {
		err := scoresrvc.StartReceivingGradedFromSqs(
			context.Background(), sqsUrl, sqsClient, scoreSrvc, slog.Default())
		if err != nil {
			log.Printf("graded receiver stopped with error: %v", err)
		}
	}()

	httpServer := scorehttp.NewHttpServer(scoreSrvc, []byte(jwtKey), gradingApiKey)

	address := ":8080"
	log.Printf("Starting server on %s", address)
	err = httpServer.Start(address)
	log.Printf("Server stopped with error: %v", err)
}
