package service

import "github.com/and161185/village-mart/internal/model"

// Services returns the static list of village services.
func Services() []model.Service {
	return []model.Service{
		{Name: "Grocery Delivery", Icon: "fa-shopping-cart"},
		{Name: "Medicine Supply", Icon: "fa-pills"},
		{Name: "Agri-Tools Rental", Icon: "fa-tractor"},
		{Name: "Bill Payments", Icon: "fa-file-invoice-dollar"},
		{Name: "Govt. Scheme Info", Icon: "fa-info-circle"},
	}
}

// News returns the static village news headlines.
func News() []model.NewsItem {
	return []model.NewsItem{
		{ID: 1, Headline: "New government subsidy announced for local farmers."},
		{ID: 2, Headline: "Mobile health clinic to visit the village next week."},
		{ID: 3, Headline: "Digital literacy workshop scheduled for Saturday."},
	}
}
