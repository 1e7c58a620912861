package topics

var builtin = []Topic{
	{
		Category: "Animals",
		Items:    []string{"Elephant", "Cat", "Dog", "Tiger", "Panda", "Penguin", "Lion", "Monkey", "Rabbit", "Giraffe"},
	},
	{
		Category: "Food",
		Items:    []string{"Pizza", "Hamburger", "Sushi", "Ramen", "Fried Rice", "Steak", "Salad", "Ice Cream", "Cake", "Dumplings"},
	},
	{
		Category: "Movies",
		Items:    []string{"The Avengers", "Titanic", "Harry Potter", "Star Wars", "Jurassic Park", "The Lion King", "Frozen", "Toy Story"},
	},
	{
		Category: "Jobs",
		Items:    []string{"Doctor", "Teacher", "Police Officer", "Firefighter", "Chef", "Programmer", "Artist", "Lawyer", "Engineer", "Nurse"},
	},
	{
		Category: "Countries",
		Items:    []string{"Japan", "United States", "France", "Italy", "Australia", "Brazil", "India", "Egypt", "Germany", "Korea"},
	},
	{
		Category: "Everyday Objects",
		Items:    []string{"Phone", "Computer", "Chair", "Cup", "Pen", "Book", "Clock", "Mirror", "Key", "Wallet"},
	},
}
