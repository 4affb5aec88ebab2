package epic

import (
	"errors"
	"fmt"

	"freegamesbot/internal/model"

	"github.com/tidwall/gjson"
)

// Путь к списку элементов каталога в ответе магазина
const elementsPath = "data.Catalog.searchStore.elements"

// Типы изображений, которые лучше всего смотрятся в карточке
var preferredImageTypes = map[string]struct{}{
	"OfferImageWide":       {},
	"DieselStoreFrontWide": {},
}

// ErrInvalidJSON возвращается, если ответ магазина не является JSON
var ErrInvalidJSON = errors.New("response is not valid JSON")

// ParseCatalog извлекает бесплатные раздачи из ответа магазина.
//
// Отсутствие любого шага пути к элементам означает пустой каталог.
// Ошибки отдельных элементов возвращаются вторым значением и не прерывают разбор.
func ParseCatalog(body []byte, links Links) ([]model.FreeItem, []error, error) {
	if !gjson.ValidBytes(body) {
		return nil, nil, ErrInvalidJSON
	}

	elements := gjson.GetBytes(body, elementsPath)
	if !elements.IsArray() {
		return []model.FreeItem{}, nil, nil
	}

	items := make([]model.FreeItem, 0)
	var itemErrs []error

	for i, element := range elements.Array() {
		item, ok, err := parseElement(element, links)
		if err != nil {
			itemErrs = append(itemErrs, &model.ItemParseError{Index: i, Err: err})
			continue
		}
		if ok {
			items = append(items, item)
		}
	}

	return items, itemErrs, nil
}

// parseElement разбирает один элемент каталога. ok=false - элемент не бесплатный.
func parseElement(element gjson.Result, links Links) (model.FreeItem, bool, error) {
	if !element.IsObject() {
		return model.FreeItem{}, false, fmt.Errorf("element is %s, not an object", element.Type)
	}

	if !isFree(element) {
		return model.FreeItem{}, false, nil
	}

	return model.FreeItem{
		Title:       stringOr(element.Get("title"), model.NoTitle),
		Description: stringOr(element.Get("description"), model.NoDescription),
		ImageURL:    bestImageURL(element),
		URL:         productURL(element, links),
	}, true, nil
}

// isFree ищет promotions.promotionalOffers[*].promotionalOffers[*] со скидкой "0".
// Элемент без любого промежуточного поля просто не подходит.
func isFree(element gjson.Result) bool {
	promotions := element.Get("promotions")
	if !promotions.IsObject() {
		return false
	}

	groups := promotions.Get("promotionalOffers")
	if !groups.IsArray() {
		return false
	}

	for _, group := range groups.Array() {
		offers := group.Get("promotionalOffers")
		if !offers.IsArray() {
			continue
		}
		for _, offer := range offers.Array() {
			setting := offer.Get("discountSetting")
			if !setting.IsObject() {
				continue
			}
			percentage := setting.Get("discountPercentage")
			if !percentage.Exists() || percentage.Type == gjson.Null {
				continue
			}
			if percentage.String() == "0" {
				return true
			}
		}
	}

	return false
}

// bestImageURL выбирает широкое изображение, иначе первое, иначе заглушку
func bestImageURL(element gjson.Result) string {
	images := element.Get("keyImages").Array()
	if len(images) == 0 {
		return model.NoImage
	}

	for _, image := range images {
		if _, ok := preferredImageTypes[image.Get("type").String()]; ok {
			return stringOr(image.Get("url"), model.NoImage)
		}
	}

	return stringOr(images[0].Get("url"), model.NoImage)
}

// productURL строит ссылку на страницу: productSlug, затем offerMappings,
// затем catalogNs.mappings, иначе корень магазина
func productURL(element gjson.Result, links Links) string {
	candidates := []gjson.Result{
		element.Get("productSlug"),
		element.Get("offerMappings.0.pageSlug"),
		element.Get("catalogNs.mappings.0.pageSlug"),
	}

	for _, slug := range candidates {
		if slug.Type == gjson.String && slug.Str != "" {
			return links.ProductURL(slug.Str)
		}
	}

	return links.StoreURL()
}

func stringOr(value gjson.Result, fallback string) string {
	if !value.Exists() || value.Type == gjson.Null {
		return fallback
	}
	return value.String()
}
