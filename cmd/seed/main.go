// Package main наполняет каталог стартовым набором товаров.
package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/evxeen/shop-backend/internal/config"
	"github.com/evxeen/shop-backend/internal/model"
	"github.com/evxeen/shop-backend/internal/repository"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	products := []model.ProductInput{
		{
			Name:        `Жидкость "Табачный классик"`,
			Description: "Классический табачный вкус, крепость 3mg",
			Price:       450,
			Stock:       15,
			Category:    "Жидкости",
		},
		{
			Name:        `Жидкость "Мятная свежесть"`,
			Description: "Освежающий мятный вкус, крепость 6mg",
			Price:       480,
			Stock:       10,
			Category:    "Жидкости",
		},
		{
			Name:        "Испаритель PnP-VM6",
			Description: "Сменный испаритель для Voopoo Drag",
			Price:       320,
			Stock:       25,
			Category:    "Расходники",
		},
	}

	ctx := context.Background()
	for _, in := range products {
		product, err := repo.CreateProduct(ctx, in)
		if err != nil {
			sugar.Fatalw("seed product error", "name", in.Name, "error", err.Error())
		}
		sugar.Infow("product created", "id", product.ID, "name", product.Name)
	}

	sugar.Infow("seed completed", "count", len(products))
}
