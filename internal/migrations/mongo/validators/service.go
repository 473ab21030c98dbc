package validators

import "go.mongodb.org/mongo-driver/bson"

var ServiceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"service_name",
			"service_type",
			"duration_minutes",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"service_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"service_type": bson.M{
				"bsonType": "string",
				"enum":     []string{"basic", "premium", "deluxe", "interior", "exterior"},
			},

			"base_price": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			"duration_minutes": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  1440,
			},
		},
	},
}
